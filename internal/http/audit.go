package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	dbaudit "github.com/opicprep/trainer/internal/database/audit"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/logging"
)

type AuditController struct {
	reader AuditReader
	log    *logging.Logger
}

func NewAuditController(reader AuditReader, log *logging.Logger) *AuditController {
	return &AuditController{reader: reader, log: log}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?type=&user_id=&limit=&offset=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	p := parsePagination(c, 25, 100)
	filter := dbaudit.Filter{
		EventType: entities.AuditEventType(c.Query("type")),
		Limit:     p.Limit,
		Offset:    p.Offset,
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid user_id")
			return
		}
		filter.UserID = uint(id)
	}

	events, total, err := ac.reader.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, ac.log, err, "list audit events")
		return
	}
	resp, err := toResponses[AuditEventResponse](events)
	if err != nil {
		respondInternalError(c, ac.log, err, "map audit events")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(resp, total, p))
}
