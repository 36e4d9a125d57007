package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/letterloop-backend/internal/http/response"
	"github.com/yungbote/letterloop-backend/internal/platform/ctxutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/store"
)

// MembershipHandler answers "which environments am I in", used by clients to
// pick a workspace after sign-in.
type MembershipHandler struct {
	log   *logger.Logger
	store *store.Store
}

func NewMembershipHandler(log *logger.Logger, st *store.Store) *MembershipHandler {
	return &MembershipHandler{
		log:   log.With("handler", "MembershipHandler"),
		store: st,
	}
}

// GET /api/environments
func (h *MembershipHandler) ListEnvironments(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	envs, err := h.store.EnvironmentsByMember(c.Request.Context(), id.Email)
	if err != nil {
		h.log.Error("ListEnvironments failed", "error", err, "email", id.Email)
		response.RespondError(c, http.StatusInternalServerError, "load_environments_failed", err)
		return
	}
	if envs == nil {
		envs = []string{}
	}
	response.RespondOK(c, gin.H{"environments": envs})
}
