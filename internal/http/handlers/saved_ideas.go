package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/letterloop-backend/internal/http/response"
	"github.com/yungbote/letterloop-backend/internal/platform/ctxutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/store"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// SavedIdeasHandler manages the bookmark list, which lives outside any
// round's lifecycle.
type SavedIdeasHandler struct {
	log   *logger.Logger
	store *store.Store
}

func NewSavedIdeasHandler(log *logger.Logger, st *store.Store) *SavedIdeasHandler {
	return &SavedIdeasHandler{
		log:   log.With("handler", "SavedIdeasHandler"),
		store: st,
	}
}

// GET /api/saved-ideas
func (h *SavedIdeasHandler) ListSavedIdeas(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	ideas, err := h.store.ListSavedIdeas(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("ListSavedIdeas failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_saved_ideas_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"saved_ideas": ideas})
}

type saveIdeaRequest struct {
	Idea   types.Idea `json:"idea"`
	Letter string     `json:"letter"`
}

// POST /api/saved-ideas
func (h *SavedIdeasHandler) SaveIdea(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req saveIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Idea.Title) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	letter := strings.ToUpper(strings.TrimSpace(req.Letter))
	if letter != "" && !types.IsLetter(letter) {
		response.RespondError(c, http.StatusBadRequest, "invalid_letter", nil)
		return
	}
	if req.Idea.ID == "" {
		req.Idea.ID = uuid.New().String()
	}

	saved := types.SavedIdea{
		ID:      uuid.New().String(),
		EnvID:   id.EnvID,
		SavedBy: id.Email,
		Idea:    req.Idea,
		Letter:  letter,
	}
	if err := h.store.SaveSavedIdea(c.Request.Context(), id.EnvID, saved); err != nil {
		h.log.Error("SaveIdea failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "save_idea_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"saved_idea": saved})
}
