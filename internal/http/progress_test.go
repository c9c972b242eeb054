package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/events"
	"github.com/opicprep/trainer/internal/logging"
)

func streamRouter(pc *ProgressController) *gin.Engine {
	router := gin.New()
	router.GET("/api/imports/:id/events", pc.Stream)
	return router
}

func processingRun(t *testing.T, env *testEnv) *entities.ImportRun {
	t.Helper()
	ctx := context.Background()
	run, err := env.runs.CreateRun(ctx, 0, "bank.csv", entities.ImportModeRow)
	require.NoError(t, err)
	require.NoError(t, env.runs.StartRun(ctx, run.ID))
	return run
}

func TestProgressController_FinishedRun(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	runs, _, err := env.runs.ListRuns(context.Background(), 0, 1, 0)
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/api/imports/"+runs[0].ID+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.Body.String(), "event:snapshot")
	assert.Contains(t, w.Body.String(), `"status":"success"`)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/imports/missing/events", nil).Code)
}

func TestProgressController_PollsUntilDone(t *testing.T) {
	env := newTestEnv(t)
	run := processingRun(t, env)

	pc := NewProgressController(env.runs, nil, logging.Nop())
	pc.pollInterval = 10 * time.Millisecond

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = env.runs.CompleteRun(context.Background(), run.ID, entities.ImportStatusSuccess, entities.ImportCounts{Total: 1, Inserted: 1}, "done")
	}()

	w := httptest.NewRecorder()
	streamRouter(pc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/imports/"+run.ID+"/events", nil))

	body := w.Body.String()
	assert.Contains(t, body, `"status":"processing"`)
	assert.Contains(t, body, `"status":"success"`)
}

func TestProgressController_LiveEvents(t *testing.T) {
	env := newTestEnv(t)
	run := processingRun(t, env)

	mr := miniredis.RunT(t)
	pub, err := events.NewPublisher(context.Background(), config.Redis{Addr: mr.Addr()}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	pc := NewProgressController(env.runs, pub, logging.Nop())
	pc.pollInterval = time.Hour

	done := make(chan struct{})
	go func() {
		// The subscription starts asynchronously, so keep publishing until the stream ends.
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = pub.UpdateProgress(context.Background(), "another-run", 10, entities.ImportCounts{})
				_ = pub.CompleteRun(context.Background(), run.ID, entities.ImportStatusSuccess, entities.ImportCounts{Inserted: 2}, "done")
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := httptest.NewRecorder()
	streamRouter(pc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/imports/"+run.ID+"/events", nil).WithContext(ctx))
	close(done)

	body := w.Body.String()
	assert.Contains(t, body, "event:"+string(events.EventCompleted))
	assert.NotContains(t, body, "another-run")
}
