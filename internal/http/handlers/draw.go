package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/letterloop-backend/internal/assign"
	"github.com/yungbote/letterloop-backend/internal/http/response"
	"github.com/yungbote/letterloop-backend/internal/platform/ctxutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/store"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// DrawHandler exposes the random-mode draw: the fairness-gate check and the
// draw itself.
type DrawHandler struct {
	log    *logger.Logger
	store  *store.Store
	drawer *assign.Drawer
}

func NewDrawHandler(log *logger.Logger, st *store.Store, drawer *assign.Drawer) *DrawHandler {
	return &DrawHandler{
		log:    log.With("handler", "DrawHandler"),
		store:  st,
		drawer: drawer,
	}
}

// GET /api/draw/can
func (h *DrawHandler) CanDraw(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	ok, err := h.drawer.CanDrawNext(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("CanDraw failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "can_draw_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"can_draw": ok})
}

// POST /api/draw
func (h *DrawHandler) Draw(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	settings, err := h.store.GetSettings(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("Draw failed (load settings)", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_settings_failed", err)
		return
	}
	if settings == nil {
		response.RespondError(c, http.StatusNotFound, "not_initialized", nil)
		return
	}
	if settings.Mode != types.ModeRandom {
		response.RespondError(c, http.StatusConflict, "not_random_mode", nil)
		return
	}

	round, err := h.drawer.DrawNextLetter(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("Draw failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "draw_failed", err)
		return
	}
	if round == nil {
		response.RespondError(c, http.StatusConflict, "draw_refused", nil)
		return
	}
	response.RespondOK(c, gin.H{"round": round})
}
