package models

import (
	"time"

	"gorm.io/gorm"
)

// Post types used for per-type preference boosts
const (
	PostTypeText        = "text"
	PostTypePhoto       = "photo"
	PostTypeVideo       = "video"
	PostTypePoll        = "poll"
	PostTypeMarketplace = "marketplace"
	PostTypeEvent       = "event"
)

// Post visibility
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"
	VisibilityPrivate   = "private"
)

// Post is a content item in the social feed
type Post struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	PostType    string      `gorm:"type:varchar(20);not null;default:'text'" json:"post_type"`
	TextContent string      `gorm:"type:text" json:"text_content"`
	Hashtags    StringArray `gorm:"type:text[]" json:"hashtags"`
	PlaceID     *string     `gorm:"index" json:"place_id,omitempty"`
	Visibility  string      `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"`

	// Set when this post is a share of another post
	SharedPostID *string `gorm:"index" json:"shared_post_id,omitempty"`

	// Engagement counters. Reactions holds a per-kind breakdown; older posts only carry LikeCount.
	LikeCount    int64            `gorm:"default:0" json:"like_count"`
	Reactions    map[string]int64 `gorm:"type:jsonb;serializer:json" json:"reactions,omitempty"`
	CommentCount int64            `gorm:"default:0" json:"comment_count"`

	PetTags []PostPetTag `gorm:"foreignKey:PostID" json:"pet_tags,omitempty"`

	// Cached baseline relevance, written by the recompute job only
	RelevanceScore     *float64   `gorm:"index" json:"relevance_score,omitempty"`
	RelevanceUpdatedAt *time.Time `json:"relevance_updated_at,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReactionCount sums the reaction breakdown, falling back to LikeCount when there is none.
// Negative counters count as zero.
func (p *Post) ReactionCount() int64 {
	if len(p.Reactions) == 0 {
		return max(p.LikeCount, 0)
	}
	var total int64
	for _, n := range p.Reactions {
		if n > 0 {
			total += n
		}
	}
	return total
}

// PetIDs returns the tagged pet ids in tag order
func (p *Post) PetIDs() []string {
	ids := make([]string, 0, len(p.PetTags))
	for _, t := range p.PetTags {
		ids = append(ids, t.PetID)
	}
	return ids
}

// PostPetTag links a post to a pet it features
type PostPetTag struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID    string    `gorm:"not null;index" json:"post_id"`
	PetID     string    `gorm:"not null;index" json:"pet_id"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPost is a bookmark of a post by a user
type SavedPost struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_saved_pair" json:"user_id"`
	PostID    string    `gorm:"not null;uniqueIndex:idx_saved_pair;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HiddenPost is a post a user asked not to see again
type HiddenPost struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	PostID    string    `gorm:"not null" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (t *PostPetTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}

func (s *SavedPost) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	return nil
}

func (h *HiddenPost) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateUUID()
	}
	return nil
}
