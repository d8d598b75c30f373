package repository

import (
	"context"
	"fmt"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"gorm.io/gorm"
)

// UserRepository reads accounts and the follow graph
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UsersByID loads users keyed by id. Unknown ids are absent from the map.
func (r *UserRepository) UsersByID(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

type followerCount struct {
	FolloweeID string
	Count      int64
}

// FollowerCounts counts followers per user. With no ids it aggregates over every user.
func (r *UserRepository) FollowerCounts(ctx context.Context, userIDs ...string) (map[string]int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Follow{}).
		Select("followee_id, COUNT(*) AS count")
	if len(userIDs) > 0 {
		tx = tx.Where("followee_id IN ?", userIDs)
	}

	var rows []followerCount
	if err := tx.Group("followee_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.FolloweeID] = row.Count
	}
	return counts, nil
}

// FollowingIDs lists the users userID follows
func (r *UserRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return ids, nil
}
