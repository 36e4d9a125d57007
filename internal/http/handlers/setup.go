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

// SetupHandler covers environment initialization and the settings surface:
// member order, assignment mode, full round reset.
type SetupHandler struct {
	log      *logger.Logger
	store    *store.Store
	rotation *assign.Rotation
}

func NewSetupHandler(log *logger.Logger, st *store.Store, rotation *assign.Rotation) *SetupHandler {
	return &SetupHandler{
		log:      log.With("handler", "SetupHandler"),
		store:    st,
		rotation: rotation,
	}
}

type initializeRequest struct {
	Name           string            `json:"name"`
	Members        []string          `json:"members"`
	MemberNames    map[string]string `json:"member_names"`
	StartingMember string            `json:"starting_member"`
	MemberOrder    []string          `json:"member_order"`
	// Force overwrites an already initialized environment, discarding every
	// round. Without it a re-init is refused.
	Force bool `json:"force"`
}

// POST /api/setup
func (h *SetupHandler) Initialize(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.Members) == 0 {
		response.RespondError(c, http.StatusBadRequest, "members_required", nil)
		return
	}
	if req.StartingMember == "" {
		req.StartingMember = id.Email
	}

	if !req.Force {
		existing, err := h.store.GetSettings(c.Request.Context(), id.EnvID)
		if err != nil {
			h.log.Error("Initialize failed (load settings)", "error", err, "env_id", id.EnvID)
			response.RespondError(c, http.StatusInternalServerError, "load_settings_failed", err)
			return
		}
		if existing != nil {
			response.RespondError(c, http.StatusConflict, "already_initialized", nil)
			return
		}
	}

	settings, err := h.store.InitializeEnvironment(c.Request.Context(), id.EnvID, req.Members, req.StartingMember, req.MemberOrder)
	if err != nil {
		h.log.Error("Initialize failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "initialize_failed", err)
		return
	}
	if req.Name != "" || len(req.MemberNames) > 0 {
		settings.Name = req.Name
		if len(req.MemberNames) > 0 {
			settings.MemberNames = make(map[string]string, len(req.MemberNames))
			for email, name := range req.MemberNames {
				settings.MemberNames[types.NormalizeMember(email)] = name
			}
		}
		if err := h.store.SaveSettings(c.Request.Context(), id.EnvID, settings); err != nil {
			h.log.Error("Initialize failed (names)", "error", err, "env_id", id.EnvID)
			response.RespondError(c, http.StatusInternalServerError, "initialize_failed", err)
			return
		}
	}
	response.RespondOK(c, gin.H{"settings": settings})
}

// GET /api/settings
func (h *SetupHandler) GetSettings(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	settings, err := h.store.GetSettings(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("GetSettings failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_settings_failed", err)
		return
	}
	if settings == nil {
		response.RespondError(c, http.StatusNotFound, "not_initialized", nil)
		return
	}
	response.RespondOK(c, gin.H{"settings": settings})
}

type memberOrderRequest struct {
	Order []string `json:"order"`
}

// PUT /api/settings/member-order
func (h *SetupHandler) UpdateMemberOrder(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req memberOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Order) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	changed, err := h.rotation.UpdateMemberOrder(c.Request.Context(), id.EnvID, req.Order)
	if err != nil {
		h.log.Error("UpdateMemberOrder failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "update_order_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"reassigned": changed})
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// PUT /api/settings/mode
func (h *SetupHandler) SetMode(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.rotation.SetMode(c.Request.Context(), id.EnvID, types.Mode(req.Mode)); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_mode", err)
		return
	}
	response.RespondOK(c, gin.H{"mode": req.Mode})
}

type resetRoundsRequest struct {
	StartingMember string   `json:"starting_member"`
	MemberOrder    []string `json:"member_order"`
}

// POST /api/settings/reset-rounds
//
// Administrator only: regenerates all 26 rounds and clears the draw history.
func (h *SetupHandler) ResetRounds(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	settings, err := h.store.GetSettings(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("ResetRounds failed (load settings)", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_settings_failed", err)
		return
	}
	if settings == nil {
		response.RespondError(c, http.StatusNotFound, "not_initialized", nil)
		return
	}
	if types.NormalizeMember(settings.AdminEmail) != types.NormalizeMember(id.Email) {
		response.RespondError(c, http.StatusForbidden, "admin_required", nil)
		return
	}

	var req resetRoundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	starting := req.StartingMember
	if starting == "" {
		starting = settings.AdminEmail
	}
	if err := h.store.ResetRounds(c.Request.Context(), id.EnvID, settings.Members, starting, req.MemberOrder); err != nil {
		h.log.Error("ResetRounds failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "reset_rounds_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"reset": true})
}
