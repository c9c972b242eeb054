package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPracticeController(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	page := decodeJSON[questionPage](t, env.do(http.MethodGet, "/api/questions?topic=music", nil))
	require.Len(t, page.Data, 1)
	questionID := page.Data[0].ID

	w := env.do(http.MethodPost, "/api/practice", gin.H{
		"question_id":      questionID,
		"transcript":       "  I mostly listen to jazz.  ",
		"duration_seconds": 42,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeJSON[PracticeAttemptResponse](t, w)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "I mostly listen to jazz.", created.Transcript)
	assert.Equal(t, "music", created.Question.Topic)

	t.Run("validation", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/practice", gin.H{"transcript": "x"}).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/practice", gin.H{"question_id": questionID, "duration_seconds": -1}).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/practice", gin.H{
			"question_id": questionID,
			"transcript":  strings.Repeat("a", maxTranscriptLength+1),
		}).Code)
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/practice", gin.H{"question_id": 9999}).Code)
	})

	w = env.do(http.MethodGet, "/api/practice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeJSON[struct {
		Data  []PracticeAttemptResponse `json:"data"`
		Total int64                     `json:"total"`
	}](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, questionID, list.Data[0].QuestionID)
	assert.Equal(t, "What kind of music do you like?", list.Data[0].Question.Text)
}
