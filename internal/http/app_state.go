package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opicprep/trainer/internal/appstate"
	"github.com/opicprep/trainer/internal/logging"
)

type AppStateController struct {
	store    AppStateStore
	settings SettingsAuditor
	log      *logging.Logger
}

func NewAppStateController(store AppStateStore, settings SettingsAuditor, log *logging.Logger) *AppStateController {
	return &AppStateController{store: store, settings: settings, log: log}
}

// Get handles GET /api/app-state.
func (ac *AppStateController) Get(c *gin.Context) {
	state, err := ac.store.Get(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, ac.log, err, "get app state")
		return
	}
	c.JSON(http.StatusOK, state)
}

// Update handles PUT /api/app-state. Only the fields present in the body change.
func (ac *AppStateController) Update(c *gin.Context) {
	var patch appstate.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if patch.Empty() {
		respondBadRequest(c, "nothing to update")
		return
	}

	state, err := ac.store.Update(c.Request.Context(), GetUserID(c), patch)
	if errors.Is(err, appstate.ErrInvalidLevel) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, ac.log, err, "update app state")
		return
	}
	ac.audit(c, "app_state_update", "updated "+strings.Join(patchFields(patch), ", "))
	c.JSON(http.StatusOK, state)
}

// Reset handles DELETE /api/app-state.
func (ac *AppStateController) Reset(c *gin.Context) {
	state, err := ac.store.Reset(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, ac.log, err, "reset app state")
		return
	}
	ac.audit(c, "app_state_reset", "reset app state")
	c.JSON(http.StatusOK, state)
}

func (ac *AppStateController) audit(c *gin.Context, action, description string) {
	if ac.settings != nil {
		ac.settings.LogSettings(GetUserID(c), action, description)
	}
}

func patchFields(p appstate.Patch) []string {
	var fields []string
	if p.OnboardingSeen != nil {
		fields = append(fields, "onboarding_seen")
	}
	if p.PreferredLevel != nil {
		fields = append(fields, "preferred_level")
	}
	if p.LastTopic != nil {
		fields = append(fields, "last_topic")
	}
	return fields
}
