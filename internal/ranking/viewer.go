package ranking

import (
	"math"
	"strings"
)

// ViewerContext is what the feed knows about the person requesting it.
// It is built per request and never persisted.
type ViewerContext struct {
	ViewerID string `json:"viewer_id"`

	// Authors the viewer follows directly or through a followed pet
	Following map[string]bool `json:"following,omitempty"`

	// Per-author affinity multiplier; absent authors are neutral
	AffinityByAuthor map[string]float64 `json:"affinity_by_author,omitempty"`

	// Per post type preference in [0, 1]
	ContentTypePreferences map[string]float64 `json:"content_type_preferences,omitempty"`

	// Per hashtag multiplier, keys lowercased
	TopicPreferences map[string]float64 `json:"topic_preferences,omitempty"`

	Location *Point `json:"location,omitempty"`

	MutedAuthors map[string]bool `json:"muted_authors,omitempty"`
	HiddenPosts  map[string]bool `json:"hidden_posts,omitempty"`
	MutedWords   []string        `json:"muted_words,omitempty"`

	// Pets owned by the viewer
	PetIDs []string `json:"pet_ids,omitempty"`

	// Set when some signals could not be read and were left neutral
	Partial bool `json:"-"`
}

// NeutralViewer is a viewer with no social graph or preferences.
// Scoring with it yields the baseline score.
func NeutralViewer(viewerID string) *ViewerContext {
	return &ViewerContext{ViewerID: viewerID}
}

// IsFollowing reports whether the viewer follows authorID
func (v *ViewerContext) IsFollowing(authorID string) bool {
	return v.Following[authorID]
}

// FollowingIDs returns the followed author ids
func (v *ViewerContext) FollowingIDs() []string {
	ids := make([]string, 0, len(v.Following))
	for id := range v.Following {
		ids = append(ids, id)
	}
	return ids
}

// Affinity returns the affinity multiplier for an author, neutral when unknown
func (v *ViewerContext) Affinity(authorID string) float64 {
	if a, ok := v.AffinityByAuthor[authorID]; ok {
		return a
	}
	return NeutralAffinity
}

// Multipliers derives the viewer-specific factors for one post.
// place is the post's resolved location, or nil.
func (v *ViewerContext) Multipliers(in Input, place *Point) Multipliers {
	m := NeutralMultipliers()
	m.Affinity = v.Affinity(in.AuthorID)

	if p, ok := v.ContentTypePreferences[in.ContentType]; ok && !math.IsNaN(p) {
		m.ContentType = NeutralContentType + 0.5*clamp01(p)
	}

	if len(v.TopicPreferences) > 0 {
		best := 0.0
		for _, tag := range in.Hashtags {
			if w, ok := v.TopicPreferences[strings.ToLower(tag)]; ok && w > best {
				best = w
			}
		}
		if best > 0 {
			m.Topic = best
		}
	}

	if v.Location != nil && place != nil {
		m.Proximity = ProximityBonus(DistanceKm(*v.Location, *place))
	}

	return m
}

// Excludes reports whether a post must never be shown to this viewer
func (v *ViewerContext) Excludes(postID, authorID, text string) bool {
	if v.MutedAuthors[authorID] || v.HiddenPosts[postID] {
		return true
	}
	if len(v.MutedWords) == 0 || text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range v.MutedWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
