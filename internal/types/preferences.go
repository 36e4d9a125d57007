package types

// PreferencesMainKey is the sentinel participant key used when no identity is
// supplied for a preferences read or write.
const PreferencesMainKey = "main"

// UserPreferences is per-participant customization plus the embedded idea
// cache keyed by letter.
type UserPreferences struct {
	Locale         string   `json:"locale,omitempty"`
	BudgetTier     string   `json:"budget_tier,omitempty"`
	DurationTier   string   `json:"duration_tier,omitempty"`
	TimeOfDay      string   `json:"time_of_day,omitempty"`
	StyleTags      []string `json:"style_tags,omitempty"`
	LocationRadius int      `json:"location_radius,omitempty"`
	Exclusions     []string `json:"exclusions,omitempty"`
	// IdeaCache maps a letter to the suggestions already generated for it,
	// so repeat views never trigger regeneration.
	IdeaCache map[string][]Idea `json:"idea_cache,omitempty"`
}

// CachedIdeas returns the cached suggestions for letter, or nil on a miss.
func (p *UserPreferences) CachedIdeas(letter string) []Idea {
	if p == nil || p.IdeaCache == nil {
		return nil
	}
	return p.IdeaCache[letter]
}

// PutIdeas stores ideas for letter, replacing any prior entry.
func (p *UserPreferences) PutIdeas(letter string, ideas []Idea) {
	if p.IdeaCache == nil {
		p.IdeaCache = make(map[string][]Idea)
	}
	p.IdeaCache[letter] = ideas
}
