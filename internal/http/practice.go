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

const maxTranscriptLength = 20000

// PracticeController records practice attempts. Answers are stored as
// transcripts only; scoring is not done here.
type PracticeController struct {
	store     PracticeStore
	questions QuestionReader
	log       *logging.Logger
}

func NewPracticeController(store PracticeStore, questions QuestionReader, log *logging.Logger) *PracticeController {
	return &PracticeController{store: store, questions: questions, log: log}
}

type practiceRequest struct {
	QuestionID      uint   `json:"question_id" binding:"required"`
	Transcript      string `json:"transcript"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Create handles POST /api/practice.
func (pc *PracticeController) Create(c *gin.Context) {
	var req practiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "question_id is required")
		return
	}
	req.Transcript = strings.TrimSpace(req.Transcript)
	if len(req.Transcript) > maxTranscriptLength {
		respondBadRequest(c, "transcript is too long")
		return
	}
	if req.DurationSeconds < 0 {
		respondBadRequest(c, "duration_seconds must not be negative")
		return
	}

	question, err := pc.questions.GetByID(c.Request.Context(), req.QuestionID)
	if err != nil {
		if errors.Is(err, questions.ErrQuestionNotFound) {
			respondNotFound(c, "question")
			return
		}
		respondInternalError(c, pc.log, err, "get question")
		return
	}

	attempt := &entities.PracticeAttempt{
		UserID:          GetUserID(c),
		QuestionID:      req.QuestionID,
		Transcript:      req.Transcript,
		DurationSeconds: req.DurationSeconds,
	}
	if err := pc.store.Create(c.Request.Context(), attempt); err != nil {
		respondInternalError(c, pc.log, err, "create practice attempt")
		return
	}
	attempt.Question = *question
	resp, err := toResponse[PracticeAttemptResponse](attempt)
	if err != nil {
		respondInternalError(c, pc.log, err, "map practice attempt")
		return
	}
	respondCreated(c, resp)
}

// List handles GET /api/practice, newest first.
func (pc *PracticeController) List(c *gin.Context) {
	p := parsePagination(c, 20, 100)
	attempts, total, err := pc.store.ListForUser(c.Request.Context(), GetUserID(c), p.Limit, p.Offset)
	if err != nil {
		respondInternalError(c, pc.log, err, "list practice attempts")
		return
	}
	resp, err := toResponses[PracticeAttemptResponse](attempts)
	if err != nil {
		respondInternalError(c, pc.log, err, "map practice attempts")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(resp, total, p))
}
