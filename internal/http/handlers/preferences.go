package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/letterloop-backend/internal/http/response"
	"github.com/yungbote/letterloop-backend/internal/platform/ctxutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/store"
	"github.com/yungbote/letterloop-backend/internal/types"
)

type PreferencesHandler struct {
	log   *logger.Logger
	store *store.Store
}

func NewPreferencesHandler(log *logger.Logger, st *store.Store) *PreferencesHandler {
	return &PreferencesHandler{
		log:   log.With("handler", "PreferencesHandler"),
		store: st,
	}
}

// GET /api/preferences
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	prefs, err := h.store.GetPreferences(c.Request.Context(), id.EnvID, id.Email)
	if err != nil {
		h.log.Error("GetPreferences failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_preferences_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"preferences": prefs})
}

// PUT /api/preferences
//
// Replaces the customization fields. The embedded idea cache is carried over
// from the stored document so a preferences save never clobbers it.
func (h *PreferencesHandler) PutPreferences(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var incoming types.UserPreferences
	if err := c.ShouldBindJSON(&incoming); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	existing, err := h.store.GetPreferences(c.Request.Context(), id.EnvID, id.Email)
	if err != nil {
		h.log.Error("PutPreferences failed (load)", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_preferences_failed", err)
		return
	}
	incoming.IdeaCache = existing.IdeaCache

	if err := h.store.SavePreferences(c.Request.Context(), id.EnvID, id.Email, &incoming); err != nil {
		h.log.Error("PutPreferences failed (save)", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "save_preferences_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"preferences": incoming})
}
