package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/letterloop-backend/internal/debounce"
	"github.com/yungbote/letterloop-backend/internal/http/response"
	"github.com/yungbote/letterloop-backend/internal/lifecycle"
	"github.com/yungbote/letterloop-backend/internal/platform/ctxutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/store"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// RoundsHandler exposes the per-letter round surface: reads, proposal and
// planning edits, lifecycle transitions, ratings. Notes and retrospective
// edits arrive at keystroke granularity, so those two fields write through a
// trailing-edge debounce instead of hitting the store on every request.
type RoundsHandler struct {
	log       *logger.Logger
	store     *store.Store
	lifecycle *lifecycle.Service

	mu      sync.Mutex
	writers map[string]*debounce.Writer
	window  time.Duration
}

func NewRoundsHandler(log *logger.Logger, st *store.Store, lc *lifecycle.Service) *RoundsHandler {
	return &RoundsHandler{
		log:       log.With("handler", "RoundsHandler"),
		store:     st,
		lifecycle: lc,
		writers:   make(map[string]*debounce.Writer),
		window:    600 * time.Millisecond,
	}
}

// GET /api/rounds
func (h *RoundsHandler) GetRounds(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	rounds, err := h.store.GetRounds(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("GetRounds failed", "error", err, "env_id", id.EnvID)
		response.RespondError(c, http.StatusInternalServerError, "load_rounds_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"rounds": rounds})
}

// GET /api/rounds/:letter
func (h *RoundsHandler) GetRound(c *gin.Context) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	rounds, err := h.store.GetRounds(c.Request.Context(), id.EnvID)
	if err != nil {
		h.log.Error("GetRound failed", "error", err, "env_id", id.EnvID, "letter", letter)
		response.RespondError(c, http.StatusInternalServerError, "load_rounds_failed", err)
		return
	}
	for i := range rounds {
		if rounds[i].Letter == letter {
			response.RespondOK(c, gin.H{"round": rounds[i]})
			return
		}
	}
	response.RespondError(c, http.StatusNotFound, "round_not_found", nil)
}

type proposalRequest struct {
	Text string `json:"text"`
}

// PUT /api/rounds/:letter/proposal
func (h *RoundsHandler) SetProposal(c *gin.Context) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	round, err := h.lifecycle.SetProposal(c.Request.Context(), id.EnvID, letter, id.Email, req.Text)
	h.respondTransition(c, round, err, "set_proposal_failed")
}

type dateRequest struct {
	Date *time.Time `json:"date"`
}

// PUT /api/rounds/:letter/date
func (h *RoundsHandler) SetDate(c *gin.Context) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	round, err := h.lifecycle.SetDate(c.Request.Context(), id.EnvID, letter, id.Email, req.Date)
	h.respondTransition(c, round, err, "set_date_failed")
}

type textRequest struct {
	Text string `json:"text"`
}

// PUT /api/rounds/:letter/notes
//
// Accepted immediately; the store write lands once the quiet window elapses
// without another edit.
func (h *RoundsHandler) SetNotes(c *gin.Context) {
	h.debouncedText(c, "notes", func(ctx context.Context, envID, letter, actor, text string) {
		if _, err := h.lifecycle.SetNotes(ctx, envID, letter, actor, text); err != nil {
			h.log.Warn("Debounced notes write failed", "error", err, "env_id", envID, "letter", letter)
		}
	})
}

// PUT /api/rounds/:letter/retrospective
func (h *RoundsHandler) SetRetrospective(c *gin.Context) {
	h.debouncedText(c, "retro", func(ctx context.Context, envID, letter, actor, text string) {
		if _, err := h.lifecycle.SetRetrospective(ctx, envID, letter, actor, text); err != nil {
			h.log.Warn("Debounced retrospective write failed", "error", err, "env_id", envID, "letter", letter)
		}
	})
}

type imageRequest struct {
	Ref string `json:"ref"`
}

// POST /api/rounds/:letter/images
func (h *RoundsHandler) AddImage(c *gin.Context) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Ref) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	round, err := h.lifecycle.AddImage(c.Request.Context(), id.EnvID, letter, id.Email, req.Ref)
	h.respondTransition(c, round, err, "add_image_failed")
}

// POST /api/rounds/:letter/finalize
func (h *RoundsHandler) FinalizePlanning(c *gin.Context) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	round, err := h.lifecycle.FinalizePlanning(c.Request.Context(), id.EnvID, letter, id.Email)
	h.respondTransition(c, round, err, "finalize_failed")
}

// POST /api/rounds/:letter/complete
func (h *RoundsHandler) MarkComplete(c *gin.Context) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	round, err := h.lifecycle.MarkComplete(c.Request.Context(), id.EnvID, letter, id.Email)
	h.respondTransition(c, round, err, "complete_failed")
}

// POST /api/rounds/:letter/reset
func (h *RoundsHandler) ResetRound(c *gin.Context) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	round, err := h.lifecycle.ResetRound(c.Request.Context(), id.EnvID, letter, id.Email)
	h.respondTransition(c, round, err, "reset_failed")
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

// POST /api/rounds/:letter/rating
func (h *RoundsHandler) SubmitRating(c *gin.Context) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	round, err := h.lifecycle.SubmitRating(c.Request.Context(), id.EnvID, letter, id.Email, req.Rating)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rating", err)
		return
	}
	if round == nil {
		response.RespondError(c, http.StatusConflict, "transition_refused", nil)
		return
	}
	response.RespondOK(c, gin.H{"round": round})
}

// Flush drains every pending debounced write. Called on shutdown.
func (h *RoundsHandler) Flush() {
	h.mu.Lock()
	writers := make([]*debounce.Writer, 0, len(h.writers))
	for _, w := range h.writers {
		writers = append(writers, w)
	}
	h.mu.Unlock()
	for _, w := range writers {
		w.Flush()
	}
}

func (h *RoundsHandler) debouncedText(c *gin.Context, field string, flush func(ctx context.Context, envID, letter, actor, text string)) {
	id, letter, ok := h.roundScope(c)
	if !ok {
		return
	}
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	envID, actor := id.EnvID, id.Email
	key := envID + "|" + letter + "|" + field + "|" + actor
	h.mu.Lock()
	w := h.writers[key]
	if w == nil {
		w = debounce.NewWriter(h.window, func(value string) {
			flush(context.Background(), envID, letter, actor, value)
		})
		h.writers[key] = w
	}
	h.mu.Unlock()

	w.Submit(req.Text)
	response.RespondOK(c, gin.H{"accepted": true})
}

func (h *RoundsHandler) respondTransition(c *gin.Context, round *types.LetterRound, err error, code string) {
	if err != nil {
		h.log.Error("Round transition failed", "error", err, "code", code)
		response.RespondError(c, http.StatusInternalServerError, code, err)
		return
	}
	if round == nil {
		response.RespondError(c, http.StatusConflict, "transition_refused", nil)
		return
	}
	response.RespondOK(c, gin.H{"round": round})
}

func (h *RoundsHandler) roundScope(c *gin.Context) (*ctxutil.Identity, string, bool) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, "", false
	}
	letter := strings.ToUpper(strings.TrimSpace(c.Param("letter")))
	if !types.IsLetter(letter) {
		response.RespondError(c, http.StatusBadRequest, "invalid_letter", nil)
		return nil, "", false
	}
	return id, letter, true
}
