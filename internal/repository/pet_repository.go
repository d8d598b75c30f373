package repository

import (
	"context"
	"fmt"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"gorm.io/gorm"
)

// PetRepository reads pet profiles and pet follows
type PetRepository struct {
	db *gorm.DB
}

func NewPetRepository(db *gorm.DB) *PetRepository {
	return &PetRepository{db: db}
}

// PetsByID loads pets keyed by id
func (r *PetRepository) PetsByID(ctx context.Context, ids []string) (map[string]*models.Pet, error) {
	out := make(map[string]*models.Pet, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var pets []models.Pet
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&pets).Error; err != nil {
		return nil, fmt.Errorf("load pets: %w", err)
	}
	for i := range pets {
		out[pets[i].ID] = &pets[i]
	}
	return out, nil
}

// PetIDsOwnedBy lists the pets a user owns
func (r *PetRepository) PetIDsOwnedBy(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Pet{}).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list owned pets: %w", err)
	}
	return ids, nil
}

// OwnersOfFollowedPets lists the owners of every pet userID follows
func (r *PetRepository) OwnersOfFollowedPets(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Pet{}).
		Distinct("pets.owner_id").
		Joins("JOIN pet_follows ON pet_follows.pet_id = pets.id").
		Where("pet_follows.follower_id = ?", userID).
		Pluck("pets.owner_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list owners of followed pets: %w", err)
	}
	return ids, nil
}
