package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"gorm.io/gorm"
)

// SocialRepository reads the per-viewer signals behind feed personalization
type SocialRepository struct {
	db *gorm.DB
}

func NewSocialRepository(db *gorm.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

// InteractionsSince lists userID's interactions created at or after since
func (r *SocialRepository) InteractionsSince(ctx context.Context, userID string, since time.Time) ([]models.Interaction, error) {
	var rows []models.Interaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return rows, nil
}

// Preference returns the stored preferences, or nil when the user has none
func (r *SocialRepository) Preference(ctx context.Context, userID string) (*models.UserPreference, error) {
	var pref models.UserPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return &pref, nil
}

func (r *SocialRepository) MutedUserIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.MutedUser{}).
		Where("user_id = ?", userID).
		Pluck("muted_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list muted users: %w", err)
	}
	return ids, nil
}

func (r *SocialRepository) HiddenPostIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.HiddenPost{}).
		Where("user_id = ?", userID).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list hidden posts: %w", err)
	}
	return ids, nil
}
