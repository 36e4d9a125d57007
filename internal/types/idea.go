package types

// Idea is one suggestion produced by the generator for a letter.
type Idea struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Rationale   string            `json:"rationale,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SavedIdea is an idea a participant bookmarked outside the active round
// flow. Independent of any round's lifecycle.
type SavedIdea struct {
	ID      string `json:"id"`
	EnvID   string `json:"env_id"`
	SavedBy string `json:"saved_by"`
	Idea    Idea   `json:"idea"`
	Letter  string `json:"letter,omitempty"`
}
