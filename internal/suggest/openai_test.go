package suggest

import (
	"strings"
	"testing"

	"github.com/yungbote/letterloop-backend/internal/types"
)

func TestStreamSSEParsesEvents(t *testing.T) {
	body := strings.Join([]string{
		": comment",
		"event: response.output_text.delta",
		`data: {"delta":"hello"}`,
		"",
		"event: response.completed",
		"data: {}",
		"",
	}, "\n")

	var events []string
	var datas []string
	err := streamSSE(strings.NewReader(body), func(event, data string) error {
		events = append(events, event)
		datas = append(datas, data)
		return nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(events) != 2 || events[0] != "response.output_text.delta" {
		t.Fatalf("unexpected events: %v", events)
	}
	if datas[0] != `{"delta":"hello"}` {
		t.Fatalf("unexpected data: %q", datas[0])
	}
}

func TestStreamSSEMultilineData(t *testing.T) {
	body := "event: x\ndata: line1\ndata: line2\n\n"
	var got string
	err := streamSSE(strings.NewReader(body), func(event, data string) error {
		got = data
		return nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != "line1\nline2" {
		t.Fatalf("data lines should join with newline, got %q", got)
	}
}

func TestStreamSSEFlushesFinalEventOnEOF(t *testing.T) {
	body := "event: y\ndata: tail"
	var count int
	if err := streamSSE(strings.NewReader(body), func(event, data string) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if count != 1 {
		t.Fatalf("trailing event without blank line should still flush, got %d", count)
	}
}

func TestDecodeIdea(t *testing.T) {
	idea, ok := decodeIdea(`{"title":"Axe throwing","tags":["active"]}`)
	if !ok {
		t.Fatalf("valid line rejected")
	}
	if idea.Title != "Axe throwing" || idea.ID == "" {
		t.Fatalf("expected filled-in id, got %+v", idea)
	}

	if _, ok := decodeIdea(`{"description":"no title"}`); ok {
		t.Fatalf("missing title should be rejected")
	}
	if _, ok := decodeIdea("not json"); ok {
		t.Fatalf("malformed line should be rejected")
	}
}

func TestUserPromptIncludesBias(t *testing.T) {
	req := Request{
		EnvID:  "env1",
		Letter: "K",
		Preferences: &types.UserPreferences{
			BudgetTier: "low",
			Exclusions: []string{"bars"},
		},
		Profile: &types.AIProfile{
			LikedTags:    map[string]int{"outdoors": 3, "food": 1},
			DislikedTags: map[string]int{"crowds": 2},
			RecentTags:   []string{"kayaking"},
		},
		LocalityHint: "Portland",
	}
	prompt := userPrompt(req, 5)
	for _, want := range []string{"Letter: K", "Portland", "low", "bars", "outdoors", "crowds", "kayaking"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestTopTagsOrderedByCount(t *testing.T) {
	tags := topTags(map[string]int{"a": 1, "b": 3, "c": 2}, 2)
	if len(tags) != 2 || tags[0] != "b" || tags[1] != "c" {
		t.Fatalf("unexpected ordering: %v", tags)
	}
}
