package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/letterloop-backend/internal/http/response"
	"github.com/yungbote/letterloop-backend/internal/ideas"
	"github.com/yungbote/letterloop-backend/internal/platform/ctxutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/store"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// IdeasHandler exposes suggestion generation: an SSE stream for live viewing,
// a blocking generate-and-wait form, the cached list, and background prefetch.
type IdeasHandler struct {
	log   *logger.Logger
	store *store.Store
	coord *ideas.Coordinator
}

func NewIdeasHandler(log *logger.Logger, st *store.Store, coord *ideas.Coordinator) *IdeasHandler {
	return &IdeasHandler{
		log:   log.With("handler", "IdeasHandler"),
		store: st,
		coord: coord,
	}
}

// GET /api/rounds/:letter/ideas
//
// Cached list only; never triggers generation.
func (h *IdeasHandler) GetCached(c *gin.Context) {
	id, letter, ok := h.ideaScope(c)
	if !ok {
		return
	}
	cached, hit := h.coord.Cached(c.Request.Context(), id.EnvID, id.Email, letter)
	if !hit {
		cached = []types.Idea{}
	}
	response.RespondOK(c, gin.H{"ideas": cached, "cached": hit})
}

// GET /api/rounds/:letter/ideas/stream
//
// Server-sent events: one "idea" event per suggestion, a terminal "done"
// event carrying the full list. A cache hit replays instantly; a miss joins
// the single in-flight generation for the key. Closing the connection stops
// delivery but not generation.
func (h *IdeasHandler) StreamIdeas(c *gin.Context) {
	id, letter, ok := h.ideaScope(c)
	if !ok {
		return
	}
	opts := ideas.Options{
		Force:        c.Query("force") == "true",
		LocalityHint: c.Query("locality"),
		ProposalText: c.Query("proposal"),
	}
	if n, err := strconv.Atoi(c.Query("count")); err == nil && n > 0 {
		opts.Count = n
	}

	stream, err := h.coord.Ideas(c.Request.Context(), id.EnvID, id.Email, letter, opts)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "ideas_failed", err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher, canFlush := c.Writer.(http.Flusher)

	var all []types.Idea
	for {
		select {
		case idea, open := <-stream.C:
			if !open {
				payload, _ := json.Marshal(gin.H{"ideas": all})
				fmt.Fprintf(c.Writer, "event: done\ndata: %s\n\n", payload)
				if canFlush {
					flusher.Flush()
				}
				return
			}
			all = append(all, idea)
			payload, _ := json.Marshal(idea)
			fmt.Fprintf(c.Writer, "event: idea\ndata: %s\n\n", payload)
			if canFlush {
				flusher.Flush()
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

type generateRequest struct {
	Force        bool   `json:"force"`
	LocalityHint string `json:"locality_hint"`
	ProposalText string `json:"proposal_text"`
	Count        int    `json:"count"`
}

// POST /api/rounds/:letter/ideas/generate
//
// Blocking form: waits for the full list. An explicit regenerate racing a
// background prefetch joins it rather than starting a second generation.
func (h *IdeasHandler) Generate(c *gin.Context) {
	id, letter, ok := h.ideaScope(c)
	if !ok {
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	list, err := h.coord.WaitForIdeas(c.Request.Context(), id.EnvID, id.Email, letter, ideas.Options{
		Force:        req.Force,
		LocalityHint: req.LocalityHint,
		ProposalText: req.ProposalText,
		Count:        req.Count,
	})
	if err != nil {
		h.log.Error("Generate failed", "error", err, "env_id", id.EnvID, "letter", letter)
		response.RespondError(c, http.StatusInternalServerError, "generate_failed", err)
		return
	}
	if list == nil {
		list = []types.Idea{}
	}
	response.RespondOK(c, gin.H{"ideas": list})
}

type prefetchRequest struct {
	Letters []string `json:"letters"`
}

// POST /api/ideas/prefetch
//
// Warms the cache in the background. With no explicit letters, prefetches
// every notStarted letter assigned to the caller.
func (h *IdeasHandler) Prefetch(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req prefetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	letters := make([]string, 0, len(req.Letters))
	for _, l := range req.Letters {
		l = strings.ToUpper(strings.TrimSpace(l))
		if types.IsLetter(l) {
			letters = append(letters, l)
		}
	}
	if len(letters) == 0 {
		rounds, err := h.store.GetRounds(c.Request.Context(), id.EnvID)
		if err != nil {
			response.RespondError(c, http.StatusInternalServerError, "load_rounds_failed", err)
			return
		}
		for _, r := range rounds {
			if r.Status == types.StatusNotStarted && types.NormalizeMember(r.Proposer) == id.Email {
				letters = append(letters, r.Letter)
			}
		}
	}
	h.coord.Prefetch(c.Request.Context(), id.EnvID, id.Email, letters)
	response.RespondOK(c, gin.H{"prefetching": letters})
}

func (h *IdeasHandler) ideaScope(c *gin.Context) (*ctxutil.Identity, string, bool) {
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
