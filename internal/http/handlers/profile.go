package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/letterloop-backend/internal/http/response"
	"github.com/yungbote/letterloop-backend/internal/platform/ctxutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/store"
)

// ProfileHandler accepts per-idea feedback and folds it into the environment's
// generation-bias profile.
type ProfileHandler struct {
	log   *logger.Logger
	store *store.Store
}

func NewProfileHandler(log *logger.Logger, st *store.Store) *ProfileHandler {
	return &ProfileHandler{
		log:   log.With("handler", "ProfileHandler"),
		store: st,
	}
}

// GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	profile, err := h.store.GetAIProfile(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("GetProfile failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_profile_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

type feedbackRequest struct {
	Action string   `json:"action"`
	Tags   []string `json:"tags"`
}

// POST /api/profile/feedback
func (h *ProfileHandler) SubmitFeedback(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Tags) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	profile, err := h.store.GetAIProfile(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("SubmitFeedback failed (load)", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_profile_failed", err)
		return
	}

	switch req.Action {
	case "liked":
		profile.RecordLiked(req.Tags)
	case "disliked":
		profile.RecordDisliked(req.Tags)
	case "completed":
		profile.RecordCompleted(req.Tags)
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_action", nil)
		return
	}

	if err := h.store.SaveAIProfile(c.Request.Context(), id.EnvID, profile); err != nil {
		h.log.Error("SubmitFeedback failed (save)", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "save_profile_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}
