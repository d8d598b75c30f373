package feed

import (
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
)

// Type selects which candidate pool a feed draws from
type Type string

const (
	TypeHome      Type = "home"
	TypeExplore   Type = "explore"
	TypeFollowing Type = "following"
	TypeLocal     Type = "local"
	TypeMyPets    Type = "my-pets"
)

// Types lists every supported feed type
var Types = []Type{TypeHome, TypeExplore, TypeFollowing, TypeLocal, TypeMyPets}

// Page size bounds
const (
	MinLimit     = 1
	MaxLimit     = 50
	DefaultLimit = 20
)

// Valid reports whether t is a known feed type
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Personalized feeds are rescored per viewer on every request.
// The others rank by the cached baseline.
func (t Type) Personalized() bool {
	return t == TypeHome || t == TypeFollowing || t == TypeMyPets
}

// diversified feeds cap how often one author appears near the top
func (t Type) diversified() bool {
	return t == TypeHome || t == TypeExplore || t == TypeLocal
}

// DateRange bounds post creation time; either end may be open
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Empty reports whether the range can match nothing
func (r DateRange) Empty() bool {
	return r.Start != nil && r.End != nil && r.Start.After(*r.End)
}

func (r DateRange) contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Filters narrow a feed. Zero values mean "no restriction".
type Filters struct {
	ContentTypes    []string  `json:"content_types,omitempty"`
	DateRange       DateRange `json:"date_range"`
	Topics          []string  `json:"topics,omitempty"`
	PetIDs          []string  `json:"pet_ids,omitempty"`
	HighQualityOnly bool      `json:"high_quality_only,omitempty"`
}

// Query is one feed request
type Query struct {
	Type    Type    `json:"type"`
	Limit   int     `json:"limit"`
	Cursor  string  `json:"cursor,omitempty"`
	Filters Filters `json:"filters"`
}

// ClampLimit forces limit into [MinLimit, MaxLimit]
func ClampLimit(limit int) int {
	return max(MinLimit, min(limit, MaxLimit))
}

// AuthorDisplay is the minimal author card shown with a post
type AuthorDisplay struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// PetDisplay is the minimal card of the first pet tagged in a post
type PetDisplay struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Species   string `json:"species,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Item is a ranked, decorated post
type Item struct {
	ID        string         `json:"id"`
	Post      *models.Post   `json:"post"`
	Author    *AuthorDisplay `json:"author,omitempty"`
	Pet       *PetDisplay    `json:"pet,omitempty"`
	Score     float64        `json:"score"`
	CreatedAt time.Time      `json:"created_at"`
}

// Page is one page of a feed
type Page struct {
	Items      []Item  `json:"items"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
	Total      int     `json:"total"`
}

func emptyPage() *Page {
	return &Page{Items: []Item{}}
}
