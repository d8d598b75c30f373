package ranking

import (
	"errors"
	"math"
	"time"
)

// Engagement weights
const (
	ReactionWeight = 1.0
	CommentWeight  = 3.0
	ShareWeight    = 2.5
	SaveWeight     = 1.5
)

// Authors above this follower count have their engagement divided by log10(followers)
const ReachNormalizationThreshold = 1000

// Neutral multiplier values. Content type is deliberately damped below 1 so baseline
// scores stay conservative relative to personalized ones.
const (
	NeutralAffinity    = 1.0
	NeutralContentType = 0.5
	NeutralTopic       = 1.0
	NeutralProximity   = 1.0
)

// ErrMissingTimestamp is returned for posts without a creation time. Callers skip the post.
var ErrMissingTimestamp = errors.New("ranking: post has no creation timestamp")

// Engagement holds a post's engagement counters
type Engagement struct {
	Reactions int64 `json:"reactions"`
	Comments  int64 `json:"comments"`
	Shares    int64 `json:"shares"`
	Saves     int64 `json:"saves"`
}

// Input is the scoring view of a post
type Input struct {
	PostID      string
	AuthorID    string
	CreatedAt   time.Time
	Engagement  Engagement
	ContentType string
	Hashtags    []string
	PlaceID     *string
}

// AuthorSummary is the scoring view of a post's author
type AuthorSummary struct {
	FollowerCount int64
}

// Multipliers are the viewer-dependent factors applied to the base score
type Multipliers struct {
	Affinity    float64 `json:"affinity"`
	ContentType float64 `json:"content_type"`
	Topic       float64 `json:"topic"`
	Proximity   float64 `json:"proximity"`
}

// NeutralMultipliers returns the multipliers used when no viewer context applies
func NeutralMultipliers() Multipliers {
	return Multipliers{
		Affinity:    NeutralAffinity,
		ContentType: NeutralContentType,
		Topic:       NeutralTopic,
		Proximity:   NeutralProximity,
	}
}

// sanitized replaces negative, NaN and infinite factors with their neutral value
func (m Multipliers) sanitized() Multipliers {
	return Multipliers{
		Affinity:    validOr(m.Affinity, NeutralAffinity),
		ContentType: validOr(m.ContentType, NeutralContentType),
		Topic:       validOr(m.Topic, NeutralTopic),
		Proximity:   validOr(m.Proximity, NeutralProximity),
	}
}

func validOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fallback
	}
	return v
}

// Signals is the full breakdown of one score computation
type Signals struct {
	AgeHours             float64     `json:"age_hours"`
	Recency              float64     `json:"recency"`
	RawEngagement        float64     `json:"raw_engagement"`
	NormalizedEngagement float64     `json:"normalized_engagement"`
	Base                 float64     `json:"base"`
	Multipliers          Multipliers `json:"multipliers"`
	Final                float64     `json:"final"`
}

// RecencyMultiplier is a step decay on post age. It never reaches zero.
func RecencyMultiplier(ageHours float64) float64 {
	switch {
	case ageHours < 1:
		return 1.0
	case ageHours < 3:
		return 0.9
	case ageHours < 6:
		return 0.7
	case ageHours < 12:
		return 0.5
	case ageHours < 24:
		return 0.3
	case ageHours < 48:
		return 0.1
	default:
		return 0.05
	}
}

// RawEngagement is the weighted sum of the engagement counters. Negative counters count as zero.
func RawEngagement(e Engagement) float64 {
	return float64(max(e.Reactions, 0))*ReactionWeight +
		float64(max(e.Comments, 0))*CommentWeight +
		float64(max(e.Shares, 0))*ShareWeight +
		float64(max(e.Saves, 0))*SaveWeight
}

// NormalizeForReach divides engagement by log10(followers) for authors above the threshold
func NormalizeForReach(raw float64, followerCount int64) float64 {
	if followerCount > ReachNormalizationThreshold {
		return raw / math.Log10(float64(followerCount))
	}
	return raw
}

// ComputeSignals scores a post and returns every intermediate value
func ComputeSignals(in Input, author AuthorSummary, now time.Time, m Multipliers) (Signals, error) {
	if in.CreatedAt.IsZero() {
		return Signals{}, ErrMissingTimestamp
	}

	// Future timestamps (clock skew) are treated as brand new
	age := max(now.Sub(in.CreatedAt).Hours(), 0)

	s := Signals{
		AgeHours:      age,
		Recency:       RecencyMultiplier(age),
		RawEngagement: RawEngagement(in.Engagement),
		Multipliers:   m.sanitized(),
	}
	s.NormalizedEngagement = NormalizeForReach(s.RawEngagement, author.FollowerCount)
	s.Base = s.NormalizedEngagement * s.Recency

	final := s.Base *
		s.Multipliers.Affinity *
		s.Multipliers.ContentType *
		s.Multipliers.Topic *
		s.Multipliers.Proximity
	if math.IsNaN(final) || final < 0 {
		final = 0
	}
	s.Final = final

	return s, nil
}

// Score returns the relevance score of a post, always >= 0
func Score(in Input, author AuthorSummary, now time.Time, m Multipliers) (float64, error) {
	s, err := ComputeSignals(in, author, now, m)
	if err != nil {
		return 0, err
	}
	return s.Final, nil
}

// Baseline returns the viewer-agnostic score cached on posts
func Baseline(in Input, author AuthorSummary, now time.Time) (float64, error) {
	return Score(in, author, now, NeutralMultipliers())
}
