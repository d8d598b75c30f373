package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"gorm.io/gorm"
)

const kmPerDegreeLat = 111.045

// PlaceRepository reads check-in locations
type PlaceRepository struct {
	db *gorm.DB
}

func NewPlaceRepository(db *gorm.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// PlacesByID loads places keyed by id
func (r *PlaceRepository) PlacesByID(ctx context.Context, ids []string) (map[string]*models.Place, error) {
	out := make(map[string]*models.Place, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var places []models.Place
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&places).Error; err != nil {
		return nil, fmt.Errorf("load places: %w", err)
	}
	for i := range places {
		out[places[i].ID] = &places[i]
	}
	return out, nil
}

// PlacesNear returns places within radiusKm of (lat, lng).
// The database narrows by bounding box; the exact haversine cut happens here.
func (r *PlaceRepository) PlacesNear(ctx context.Context, lat, lng, radiusKm float64) ([]models.Place, error) {
	if radiusKm <= 0 {
		return []models.Place{}, nil
	}

	dLat := radiusKm / kmPerDegreeLat
	tx := r.db.WithContext(ctx).Where("latitude BETWEEN ? AND ?", lat-dLat, lat+dLat)

	// Longitude degrees shrink towards the poles; skip the longitude cut where it degenerates
	if cos := math.Cos(lat * math.Pi / 180); cos > 0.01 {
		dLng := radiusKm / (kmPerDegreeLat * cos)
		if dLng < 180 {
			minLng, maxLng := lng-dLng, lng+dLng
			// A box crossing the antimeridian becomes two ranges
			switch {
			case minLng < -180:
				tx = tx.Where("(longitude BETWEEN ? AND ? OR longitude BETWEEN ? AND ?)", -180, maxLng, minLng+360, 180)
			case maxLng > 180:
				tx = tx.Where("(longitude BETWEEN ? AND ? OR longitude BETWEEN ? AND ?)", minLng, 180, -180, maxLng-360)
			default:
				tx = tx.Where("longitude BETWEEN ? AND ?", minLng, maxLng)
			}
		}
	}

	var boxed []models.Place
	if err := tx.Find(&boxed).Error; err != nil {
		return nil, fmt.Errorf("find places near (%f,%f): %w", lat, lng, err)
	}

	origin := ranking.Point{Lat: lat, Lng: lng}
	near := make([]models.Place, 0, len(boxed))
	for _, p := range boxed {
		if ranking.DistanceKm(origin, ranking.Point{Lat: p.Latitude, Lng: p.Longitude}) <= radiusKm {
			near = append(near, p)
		}
	}
	return near, nil
}
