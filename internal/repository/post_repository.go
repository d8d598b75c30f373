package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"gorm.io/gorm"
)

// Candidate orderings
const (
	OrderRecent    = "recent"
	OrderRelevance = "relevance"
)

// CandidateQuery narrows the posts a feed considers. Nil slices mean "no restriction";
// a non-nil empty slice matches nothing.
type CandidateQuery struct {
	AuthorIDs       []string
	PetIDs          []string
	PlaceIDs        []string
	ContentTypes    []string
	TaggedPetIDs    []string // posts must also tag one of these pets
	Topics          []string // lowercased hashtags without '#'; any one must match
	Visibilities    []string
	ExcludeAuthorID string
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	OrderBy         string
	Limit           int
}

func (q CandidateQuery) matchesNothing() bool {
	return (q.AuthorIDs != nil && len(q.AuthorIDs) == 0) ||
		(q.PetIDs != nil && len(q.PetIDs) == 0) ||
		(q.PlaceIDs != nil && len(q.PlaceIDs) == 0)
}

// PostRepository reads posts and writes back their cached relevance
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// GetByID returns a non-deleted post with its pet tags
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("PetTags", orderedPetTags).
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// PostsCreatedSince lists every non-deleted post created at or after since
func (r *PostRepository) PostsCreatedSince(ctx context.Context, since time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts since %s: %w", since.Format(time.RFC3339), err)
	}
	return posts, nil
}

// FindCandidates returns feed candidates with pet tags preloaded
func (r *PostRepository) FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Post, error) {
	if q.matchesNothing() {
		return []models.Post{}, nil
	}

	tx := r.db.WithContext(ctx).Model(&models.Post{}).Preload("PetTags", orderedPetTags)

	if q.AuthorIDs != nil {
		tx = tx.Where("author_id IN ?", q.AuthorIDs)
	}
	if q.PetIDs != nil {
		tx = tx.Where("id IN (?)",
			r.db.Model(&models.PostPetTag{}).Select("post_id").Where("pet_id IN ?", q.PetIDs))
	}
	if q.PlaceIDs != nil {
		tx = tx.Where("place_id IN ?", q.PlaceIDs)
	}
	if len(q.TaggedPetIDs) > 0 {
		tx = tx.Where("id IN (?)",
			r.db.Model(&models.PostPetTag{}).Select("post_id").Where("pet_id IN ?", q.TaggedPetIDs))
	}
	if len(q.Topics) > 0 {
		tx = r.whereAnyTopic(tx, q.Topics)
	}
	if len(q.ContentTypes) > 0 {
		tx = tx.Where("post_type IN ?", q.ContentTypes)
	}
	if len(q.Visibilities) > 0 {
		tx = tx.Where("visibility IN ?", q.Visibilities)
	}
	if q.ExcludeAuthorID != "" {
		tx = tx.Where("author_id <> ?", q.ExcludeAuthorID)
	}
	if q.CreatedAfter != nil {
		tx = tx.Where("created_at >= ?", *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		tx = tx.Where("created_at <= ?", *q.CreatedBefore)
	}

	switch q.OrderBy {
	case OrderRelevance:
		tx = tx.Order("relevance_score DESC NULLS LAST").Order("created_at DESC").Order("id ASC")
	default:
		tx = tx.Order("created_at DESC").Order("id ASC")
	}

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var posts []models.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) whereAnyTopic(tx *gorm.DB, topics []string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return tx.Where("EXISTS (SELECT 1 FROM unnest(posts.hashtags) AS tag WHERE lower(ltrim(btrim(tag), '#')) IN ?)", topics)
	}

	// Elsewhere the array is stored as its text literal; this is a coarse match and
	// callers still compare tags exactly
	conds := make([]string, len(topics))
	args := make([]interface{}, len(topics))
	for i, t := range topics {
		conds[i] = "lower(hashtags) LIKE ?"
		args[i] = "%" + t + "%"
	}
	return tx.Where("("+strings.Join(conds, " OR ")+")", args...)
}

type postCount struct {
	PostID string
	Count  int64
}

// ShareCounts counts, per post, the non-deleted posts sharing it.
// With no ids it aggregates over every post.
func (r *PostRepository) ShareCounts(ctx context.Context, postIDs ...string) (map[string]int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("shared_post_id AS post_id, COUNT(*) AS count").
		Where("shared_post_id IS NOT NULL")
	if len(postIDs) > 0 {
		tx = tx.Where("shared_post_id IN ?", postIDs)
	}

	var rows []postCount
	if err := tx.Group("shared_post_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count shares: %w", err)
	}
	return toCountMap(rows), nil
}

// SaveCounts counts, per post, the users who saved it.
// With no ids it aggregates over every post.
func (r *PostRepository) SaveCounts(ctx context.Context, postIDs ...string) (map[string]int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.SavedPost{}).
		Select("post_id, COUNT(*) AS count")
	if len(postIDs) > 0 {
		tx = tx.Where("post_id IN ?", postIDs)
	}

	var rows []postCount
	if err := tx.Group("post_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count saves: %w", err)
	}
	return toCountMap(rows), nil
}

// UpdateRelevance writes the cached baseline score. No other column is touched.
func (r *PostRepository) UpdateRelevance(ctx context.Context, postID string, score float64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{
			"relevance_score":      score,
			"relevance_updated_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("update relevance for %s: %w", postID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update relevance for %s: %w", postID, gorm.ErrRecordNotFound)
	}
	return nil
}

func orderedPetTags(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func toCountMap(rows []postCount) map[string]int64 {
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts
}
