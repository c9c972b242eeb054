package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/opicprep/trainer/internal/appstate"
	"github.com/opicprep/trainer/internal/audit"
	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/database"
	dbaudit "github.com/opicprep/trainer/internal/database/audit"
	"github.com/opicprep/trainer/internal/database/imports"
	"github.com/opicprep/trainer/internal/database/practice"
	"github.com/opicprep/trainer/internal/database/questions"
	"github.com/opicprep/trainer/internal/database/settings"
	"github.com/opicprep/trainer/internal/logging"
	"github.com/opicprep/trainer/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const bankCSV = "level,topic,question_type,style,question,order\n" +
	"intermediate,travel,random,roleplay,Describe your last trip.,11\n" +
	"intermediate,travel,random,roleplay,Ask me three questions about my trip.,12\n" +
	"advanced,music,random,advques,What kind of music do you like?,13\n"

type testEnv struct {
	router    *gin.Engine
	db        *database.Database
	service   *services.ImportService
	runs      *imports.Repository
	questions *questions.Repository
	audit     *audit.Service
}

func importConfig() config.Import {
	return config.Import{Mode: "row", BatchSize: 50, SkipDuplicates: true, ComboKeyPolicy: "auto", MaxUploadMB: 1}
}

// newTestEnv wires the real repositories over a temporary sqlite database.
// mutate can adjust the router config before the router is built.
func newTestEnv(t *testing.T, mutate ...func(*RouterConfig)) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewDatabase(config.Database{Driver: config.DriverSQLite, Path: filepath.Join(dir, "http.db")}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:        db,
		runs:      imports.NewRepository(db.DB),
		questions: questions.NewRepository(db.DB),
		audit:     audit.NewService(dbaudit.NewRepository(db.DB), logging.Nop()),
	}
	env.service = services.NewImportService(services.ImportServiceConfig{
		Questions: env.questions,
		Runs:      env.runs,
		Audit:     env.audit,
		UploadDir: filepath.Join(dir, "uploads"),
	})

	cfg := RouterConfig{
		Database:     db,
		Imports:      env.service,
		Questions:    env.questions,
		AppState:     appstate.New(settings.NewRepository(db.DB)),
		Practice:     practice.NewRepository(db.DB),
		Audit:        env.audit,
		Settings:     env.audit,
		ImportConfig: importConfig(),
		Version:      "test",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	env.router = NewRouter(cfg)
	return env
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, fileName, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, uploadRequest(t, fileName, content, fields))
	return w
}

// seed imports bankCSV through the service.
func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	w := e.upload(t, "bank.csv", bankCSV, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (e *testEnv) waitAudit() {
	e.audit.Wait()
}

func uploadRequest(t *testing.T, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/questions/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
