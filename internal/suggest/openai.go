package suggest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/letterloop-backend/internal/platform/envutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/types"
)

const defaultIdeaCount = 5

// OpenAI streams ideas from the OpenAI responses API. The model is asked for
// one JSON object per line so records can be emitted as soon as each line
// completes, without waiting for the full response.
type OpenAI struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAI(log *logger.Logger) (*OpenAI, error) {
	apiKey := strings.TrimSpace(envutil.GetEnv("OPENAI_API_KEY", ""))
	if apiKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(envutil.GetEnv("OPENAI_BASE_URL", "https://api.openai.com"), "/")
	model := envutil.GetEnv("OPENAI_MODEL", "gpt-5.2")
	timeoutSec := envutil.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 180)

	return &OpenAI{
		log:        log.With("service", "OpenAISuggest"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type responsesStreamRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
	Input  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"input"`
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (*Stream, error) {
	if req.EnvID == "" || !types.IsLetter(req.Letter) {
		return nil, errors.New("env id and letter required")
	}
	count := req.Count
	if count <= 0 {
		count = defaultIdeaCount
	}

	body := responsesStreamRequest{Model: o.model, Stream: true}
	body.Input = []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{
		{Role: "system", Content: systemPrompt(count)},
		{Role: "user", Content: userPrompt(req, count)},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/responses", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode, string(raw))
	}

	stream := NewStream(count)
	go o.consume(ctx, resp.Body, stream)
	return stream, nil
}

// consume reads SSE events off the response body, reassembles output text
// deltas into lines, and emits one idea per completed JSON line.
func (o *OpenAI) consume(ctx context.Context, body io.ReadCloser, stream *Stream) {
	defer func() { _ = body.Close() }()

	var pending strings.Builder
	emitLine := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		idea, ok := decodeIdea(line)
		if !ok {
			o.log.Warn("Dropping malformed idea line", "line_len", len(line))
			return
		}
		stream.Emit(ctx, idea)
	}

	err := streamSSE(body, func(event, data string) error {
		switch event {
		case "response.output_text.delta":
			var payload struct {
				Delta string `json:"delta"`
			}
			if err := json.Unmarshal([]byte(data), &payload); err != nil {
				return nil
			}
			pending.WriteString(payload.Delta)
			for {
				text := pending.String()
				idx := strings.IndexByte(text, '\n')
				if idx < 0 {
					break
				}
				emitLine(text[:idx])
				pending.Reset()
				pending.WriteString(text[idx+1:])
			}
		case "response.failed", "error":
			return fmt.Errorf("generation failed: %s", data)
		}
		return nil
	})
	if err == nil {
		emitLine(pending.String())
	}
	stream.Finish(err)
}

func decodeIdea(line string) (types.Idea, bool) {
	var idea types.Idea
	if err := json.Unmarshal([]byte(line), &idea); err != nil {
		return types.Idea{}, false
	}
	if idea.Title == "" {
		return types.Idea{}, false
	}
	if idea.ID == "" {
		idea.ID = uuid.New().String()
	}
	return idea, true
}

func systemPrompt(count int) string {
	return fmt.Sprintf(
		"You suggest date/activity ideas for an alphabet game: each round's activity must start with a given letter. "+
			"Respond with exactly %d ideas as NDJSON: one JSON object per line, no surrounding array, no prose. "+
			`Each object has "title", "description", "rationale" and "tags" (array of lowercase strings).`, count)
}

func userPrompt(req Request, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Letter: %s\n", req.Letter)
	if req.LocalityHint != "" {
		fmt.Fprintf(&b, "Location: %s\n", req.LocalityHint)
	}
	if req.ProposalText != "" {
		fmt.Fprintf(&b, "The proposer has drafted: %q. Offer ideas that build on or improve it.\n", req.ProposalText)
	}
	if p := req.Preferences; p != nil {
		if p.BudgetTier != "" {
			fmt.Fprintf(&b, "Budget: %s\n", p.BudgetTier)
		}
		if p.DurationTier != "" {
			fmt.Fprintf(&b, "Duration: %s\n", p.DurationTier)
		}
		if p.TimeOfDay != "" {
			fmt.Fprintf(&b, "Time of day: %s\n", p.TimeOfDay)
		}
		if len(p.StyleTags) > 0 {
			fmt.Fprintf(&b, "Preferred styles: %s\n", strings.Join(p.StyleTags, ", "))
		}
		if len(p.Exclusions) > 0 {
			fmt.Fprintf(&b, "Never suggest: %s\n", strings.Join(p.Exclusions, ", "))
		}
		if p.LocationRadius > 0 {
			fmt.Fprintf(&b, "Stay within %d km\n", p.LocationRadius)
		}
	}
	if prof := req.Profile; prof != nil {
		if liked := topTags(prof.LikedTags, 5); len(liked) > 0 {
			fmt.Fprintf(&b, "The group has liked: %s\n", strings.Join(liked, ", "))
		}
		if disliked := topTags(prof.DislikedTags, 5); len(disliked) > 0 {
			fmt.Fprintf(&b, "The group has disliked, avoid: %s\n", strings.Join(disliked, ", "))
		}
		if len(prof.RecentTags) > 0 {
			fmt.Fprintf(&b, "Recently done, avoid repeating: %s\n", strings.Join(prof.RecentTags, ", "))
		}
	}
	fmt.Fprintf(&b, "Suggest %d ideas.", count)
	return b.String()
}

func topTags(counts map[string]int, n int) []string {
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > n {
		tags = tags[:n]
	}
	return tags
}

// streamSSE parses a text/event-stream body, invoking onEvent per event.
func streamSSE(r io.Reader, onEvent func(event string, data string) error) error {
	br := bufio.NewReader(r)
	var (
		eventName string
		dataLines []string
	)

	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		data := strings.Join(dataLines, "\n")
		dataLines = nil
		ev := eventName
		eventName = ""
		if onEvent == nil {
			return nil
		}
		return onEvent(ev, data)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				_ = flush()
				break
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		// Blank line ends event.
		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}

		// Comment.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}

		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			continue
		}
	}

	return nil
}
