package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/database/imports"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/importers"
	"github.com/opicprep/trainer/internal/logging"
	"github.com/opicprep/trainer/internal/services"
	"github.com/opicprep/trainer/internal/utils"
)

const defaultMaxUploadMB = 10

// ImportController serves question imports and their runs.
type ImportController struct {
	runner   ImportRunner
	defaults importers.Options
	maxBytes int64
	log      *logging.Logger
}

func NewImportController(runner ImportRunner, cfg config.Import, log *logging.Logger) *ImportController {
	defaults, err := importers.DefaultOptions(cfg)
	if err != nil {
		log.Warn("invalid import defaults, using row mode", "error", err)
		defaults = importers.Options{
			Mode:           entities.ImportModeRow,
			BatchSize:      config.DefaultImportBatchSize,
			SkipDuplicates: true,
			ComboKeyPolicy: importers.PolicyAuto,
		}
	}
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	return &ImportController{
		runner:   runner,
		defaults: defaults,
		maxBytes: maxMB << 20,
		log:      log,
	}
}

// Import handles POST /api/questions/import.
func (ic *ImportController) Import(c *gin.Context) {
	upload, ok := ic.readUpload(c)
	if !ok {
		return
	}
	opts, async, err := ic.parseOptions(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if async {
		ic.enqueue(c, upload, opts)
		return
	}

	// A client disconnect must not abort a run that is already recording rows.
	ctx := context.WithoutCancel(c.Request.Context())
	report, err := ic.runner.Import(ctx, GetUserID(c), upload, opts)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, report)
	case report == nil:
		ic.respondRunError(c, err)
	case importers.IsInputError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Details: report})
	default:
		c.JSON(http.StatusUnprocessableEntity, report)
	}
}

func (ic *ImportController) enqueue(c *gin.Context, upload importers.Upload, opts importers.Options) {
	if !ic.runner.AsyncEnabled() {
		respondError(c, http.StatusServiceUnavailable, services.ErrAsyncUnavailable.Error())
		return
	}
	run, err := ic.runner.Enqueue(c.Request.Context(), GetUserID(c), upload, opts)
	if err != nil {
		if importers.IsInputError(err) {
			respondBadRequest(c, err.Error())
			return
		}
		ic.respondRunError(c, err)
		return
	}
	resp, err := toResponse[ImportRunResponse](run)
	if err != nil {
		respondInternalError(c, ic.log, err, "map import run")
		return
	}
	respondAccepted(c, "import queued", resp)
}

// readUpload reads the multipart "file" field and rejects oversized or
// unsupported files before any run is created.
func (ic *ImportController) readUpload(c *gin.Context) (importers.Upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxBytes+(1<<20))

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "file is too large")
			return importers.Upload{}, false
		}
		respondBadRequest(c, "file is required")
		return importers.Upload{}, false
	}
	if header.Size > ic.maxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return importers.Upload{}, false
	}
	name := utils.SanitizeFilename(header.Filename)
	if _, err := importers.DetectFormat(name); err != nil {
		respondBadRequest(c, err.Error())
		return importers.Upload{}, false
	}

	f, err := header.Open()
	if err != nil {
		respondInternalError(c, ic.log, err, "open upload")
		return importers.Upload{}, false
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, ic.maxBytes+1))
	if err != nil {
		respondInternalError(c, ic.log, err, "read upload")
		return importers.Upload{}, false
	}
	if len(content) == 0 {
		respondBadRequest(c, importers.ErrEmptyFile.Error())
		return importers.Upload{}, false
	}
	return importers.Upload{FileName: name, Content: content}, true
}

// parseOptions overlays form fields on the configured defaults.
func (ic *ImportController) parseOptions(c *gin.Context) (importers.Options, bool, error) {
	opts := ic.defaults

	if raw := c.PostForm("mode"); raw != "" {
		mode, err := importers.ParseMode(raw)
		if err != nil {
			return opts, false, err
		}
		opts.Mode = mode
	}
	if raw := c.PostForm("batch_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, false, errors.New("batch_size must be a number")
		}
		opts.BatchSize = config.ClampBatchSize(n)
	}
	if raw := c.PostForm("combo_key_policy"); raw != "" {
		policy, err := importers.ParseComboKeyPolicy(raw)
		if err != nil {
			return opts, false, err
		}
		opts.ComboKeyPolicy = policy
	}

	var err error
	if opts.SkipDuplicates, err = parseBoolField(c.PostForm("skip_duplicates"), opts.SkipDuplicates); err != nil {
		return opts, false, errors.New("skip_duplicates must be true or false")
	}
	if opts.DryRun, err = parseBoolField(c.PostForm("dry_run"), false); err != nil {
		return opts, false, errors.New("dry_run must be true or false")
	}
	async, err := parseBoolField(c.PostForm("async"), false)
	if err != nil {
		return opts, false, errors.New("async must be true or false")
	}
	opts.RunID = c.PostForm("run_id")
	return opts, async, nil
}

func (ic *ImportController) respondRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, importers.ErrInvalidOptions):
		respondBadRequest(c, err.Error())
	case errors.Is(err, imports.ErrRunNotFound):
		respondNotFound(c, "import run")
	case errors.Is(err, importers.ErrInvalidTransition):
		respondConflict(c, err.Error())
	default:
		respondInternalError(c, ic.log, err, "import")
	}
}

// ListRuns handles GET /api/imports.
func (ic *ImportController) ListRuns(c *gin.Context) {
	p := parsePagination(c, 20, 100)
	runs, total, err := ic.runner.ListRuns(c.Request.Context(), 0, p.Limit, p.Offset)
	if err != nil {
		respondInternalError(c, ic.log, err, "list import runs")
		return
	}
	resp, err := toResponses[ImportRunResponse](runs)
	if err != nil {
		respondInternalError(c, ic.log, err, "map import runs")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(resp, total, p))
}

// GetRun handles GET /api/imports/:id.
func (ic *ImportController) GetRun(c *gin.Context) {
	run, err := ic.runner.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		ic.respondRunError(c, err)
		return
	}
	ic.respondRun(c, run)
}

// ResetRun handles POST /api/imports/:id/reset.
func (ic *ImportController) ResetRun(c *gin.Context) {
	run, err := ic.runner.ResetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		ic.respondRunError(c, err)
		return
	}
	ic.respondRun(c, run)
}

func (ic *ImportController) respondRun(c *gin.Context, run *entities.ImportRun) {
	resp, err := toResponse[ImportRunResponse](run)
	if err != nil {
		respondInternalError(c, ic.log, err, "map import run")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ClearQuestions handles DELETE /api/questions?confirm=true.
func (ic *ImportController) ClearQuestions(c *gin.Context) {
	if c.Query("confirm") != "true" {
		respondBadRequest(c, "add confirm=true to delete every question")
		return
	}
	deleted, err := ic.runner.ClearQuestions(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, ic.log, err, "clear questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
