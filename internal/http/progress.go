package http

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opicprep/trainer/internal/database/imports"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/events"
	"github.com/opicprep/trainer/internal/importers"
	"github.com/opicprep/trainer/internal/logging"
)

const defaultPollInterval = 2 * time.Second

type RunGetter interface {
	GetRun(ctx context.Context, id string) (*entities.ImportRun, error)
}

// ProgressController streams the progress of one import run as server-sent
// events. Live events come from redis when configured; the stored run is
// polled either way so the stream also ends when an event was missed.
type ProgressController struct {
	runs         RunGetter
	progress     ProgressSubscriber
	pollInterval time.Duration
	log          *logging.Logger
}

func NewProgressController(runs RunGetter, progress ProgressSubscriber, log *logging.Logger) *ProgressController {
	return &ProgressController{runs: runs, progress: progress, pollInterval: defaultPollInterval, log: log}
}

// Stream handles GET /api/imports/:id/events.
//
// Events: "snapshot" with the stored run, then the import.* events published
// while the run moves. The stream closes once the run reaches success or error.
func (pc *ProgressController) Stream(c *gin.Context) {
	runID := c.Param("id")
	run, err := pc.runs.GetRun(c.Request.Context(), runID)
	if errors.Is(err, imports.ErrRunNotFound) {
		respondNotFound(c, "import run")
		return
	}
	if err != nil {
		respondInternalError(c, pc.log, err, "get import run")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	if !pc.sendSnapshot(c, run) {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	live := make(chan events.ProgressEvent, 16)
	if pc.progress != nil {
		go func() {
			err := pc.progress.Subscribe(ctx, func(ev events.ProgressEvent) {
				if ev.RunID != runID {
					return
				}
				select {
				case live <- ev:
				case <-ctx.Done():
				}
			})
			if err != nil {
				pc.log.Warn("progress subscription ended", "run_id", runID, "error", err)
			}
		}()
	}

	poll := time.NewTicker(pc.pollInterval)
	defer poll.Stop()
	last := *run

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-live:
			c.SSEvent(string(ev.Type), ev)
			c.Writer.Flush()
			if ev.Type == events.EventCompleted {
				return
			}
		case <-poll.C:
			current, err := pc.runs.GetRun(ctx, runID)
			if err != nil {
				pc.log.Warn("failed to poll import run", "run_id", runID, "error", err)
				continue
			}
			if current.Status == last.Status && current.Percent == last.Percent && current.UpdatedAt.Equal(last.UpdatedAt) {
				continue
			}
			last = *current
			if !pc.sendSnapshot(c, current) {
				return
			}
		}
	}
}

// sendSnapshot writes the run and reports whether the stream should continue.
func (pc *ProgressController) sendSnapshot(c *gin.Context, run *entities.ImportRun) bool {
	resp, err := toResponse[ImportRunResponse](run)
	if err != nil {
		pc.log.Error("failed to map import run", "run_id", run.ID, "error", err)
		return false
	}
	c.SSEvent("snapshot", resp)
	c.Writer.Flush()
	return !importers.IsTerminal(run.Status)
}
