package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opicprep/trainer/internal/database/questions"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/logging"
)

// QuestionsController serves read access to the question bank.
type QuestionsController struct {
	store QuestionReader
	log   *logging.Logger
}

func NewQuestionsController(store QuestionReader, log *logging.Logger) *QuestionsController {
	return &QuestionsController{store: store, log: log}
}

// parseLevel reads the optional level query parameter.
func parseLevel(c *gin.Context) (entities.Level, bool) {
	raw := strings.ToLower(strings.TrimSpace(c.Query("level")))
	if raw == "" {
		return "", true
	}
	level := entities.Level(raw)
	if !level.Valid() {
		respondBadRequest(c, "level must be intermediate or advanced")
		return "", false
	}
	return level, true
}

// List handles GET /api/questions?level=&topic=&style=&limit=&offset=.
func (qc *QuestionsController) List(c *gin.Context) {
	level, ok := parseLevel(c)
	if !ok {
		return
	}
	p := parsePagination(c, 50, 200)

	list, total, err := qc.store.List(c.Request.Context(), questions.Filter{
		Level:  level,
		Topic:  strings.ToLower(strings.TrimSpace(c.Query("topic"))),
		Style:  strings.ToLower(strings.TrimSpace(c.Query("style"))),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		respondInternalError(c, qc.log, err, "list questions")
		return
	}
	resp, err := toResponses[QuestionResponse](list)
	if err != nil {
		respondInternalError(c, qc.log, err, "map questions")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(resp, total, p))
}

// Topics handles GET /api/questions/topics?level=.
func (qc *QuestionsController) Topics(c *gin.Context) {
	level, ok := parseLevel(c)
	if !ok {
		return
	}
	topics, err := qc.store.Topics(c.Request.Context(), level)
	if err != nil {
		respondInternalError(c, qc.log, err, "list topics")
		return
	}
	if topics == nil {
		topics = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// Combo handles GET /api/questions/combo/:key and returns the parts in order.
func (qc *QuestionsController) Combo(c *gin.Context) {
	key := c.Param("key")
	parts, err := qc.store.ByComboKey(c.Request.Context(), key)
	if err != nil {
		respondInternalError(c, qc.log, err, "combo questions")
		return
	}
	if len(parts) == 0 {
		respondNotFound(c, "combo")
		return
	}
	resp, err := toResponses[QuestionResponse](parts)
	if err != nil {
		respondInternalError(c, qc.log, err, "map questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"combo_key": key, "questions": resp})
}

// Get handles GET /api/questions/:id.
func (qc *QuestionsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	q, err := qc.store.GetByID(c.Request.Context(), id)
	if errors.Is(err, questions.ErrQuestionNotFound) {
		respondNotFound(c, "question")
		return
	}
	if err != nil {
		respondInternalError(c, qc.log, err, "get question")
		return
	}
	resp, err := toResponse[QuestionResponse](q)
	if err != nil {
		respondInternalError(c, qc.log, err, "map question")
		return
	}
	c.JSON(http.StatusOK, resp)
}
