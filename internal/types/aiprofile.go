package types

// AIProfile is the per-environment aggregate signal used to bias suggestion
// generation away from repetition and disliked categories.
type AIProfile struct {
	LikedTags    map[string]int `json:"liked_tags,omitempty"`
	DislikedTags map[string]int `json:"disliked_tags,omitempty"`
	RecentTags   []string       `json:"recent_tags,omitempty"`
}

// RecordLiked increments the liked counter for each tag.
func (p *AIProfile) RecordLiked(tags []string) {
	if p.LikedTags == nil {
		p.LikedTags = make(map[string]int)
	}
	for _, t := range tags {
		p.LikedTags[t]++
	}
}

// RecordDisliked increments the disliked counter for each tag.
func (p *AIProfile) RecordDisliked(tags []string) {
	if p.DislikedTags == nil {
		p.DislikedTags = make(map[string]int)
	}
	for _, t := range tags {
		p.DislikedTags[t]++
	}
}

// RecordCompleted appends the tags of a completed round, keeping only the
// most recent window.
func (p *AIProfile) RecordCompleted(tags []string) {
	const recentWindow = 30
	p.RecentTags = append(p.RecentTags, tags...)
	if len(p.RecentTags) > recentWindow {
		p.RecentTags = p.RecentTags[len(p.RecentTags)-recentWindow:]
	}
}
