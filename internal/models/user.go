package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		*a = nil
		return nil
	}

	str = strings.TrimSuffix(strings.TrimPrefix(str, "{"), "}")
	if str == "" {
		*a = []string{}
		return nil
	}

	parts := strings.Split(str, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(p, `"`)
	}
	*a = parts
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// User is a pet owner account. Only the fields the feed reads are modelled here.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	AvatarURL   string `json:"avatar_url"`

	// Last known coordinates, used for the local feed
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Follow is a user following another user
type Follow struct {
	ID         string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FollowerID string    `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FolloweeID string    `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// MutedUser hides every post of MutedID from UserID's feeds
type MutedUser struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	MutedID   string    `gorm:"not null" json:"muted_id"`
	CreatedAt time.Time `json:"created_at"`
}

// InteractionKind is the type of engagement a user had with another user's content
type InteractionKind string

const (
	InteractionMessage InteractionKind = "message"
	InteractionComment InteractionKind = "comment"
	InteractionShare   InteractionKind = "share"
	InteractionLike    InteractionKind = "like"
	InteractionView    InteractionKind = "view"
)

// Interaction records one engagement event from UserID towards TargetUserID.
// Affinity is derived from the recent history of these rows.
type Interaction struct {
	ID           string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string          `gorm:"not null;index:idx_interactions_user_created" json:"user_id"`
	TargetUserID string          `gorm:"not null" json:"target_user_id"`
	Kind         InteractionKind `gorm:"type:varchar(20);not null" json:"kind"`
	CreatedAt    time.Time       `gorm:"index:idx_interactions_user_created" json:"created_at"`
}

// UserPreference holds a viewer's stored feed preferences
type UserPreference struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;uniqueIndex" json:"user_id"`

	ContentTypeWeights map[string]float64 `gorm:"type:jsonb;serializer:json" json:"content_type_weights"` // post type -> weight (0-1)
	TopicWeights       map[string]float64 `gorm:"type:jsonb;serializer:json" json:"topic_weights"`        // hashtag -> weight (0-1)
	MutedWords         StringArray        `gorm:"type:text[]" json:"muted_words"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (m *MutedUser) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = generateUUID()
	}
	return nil
}

func (p *UserPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
