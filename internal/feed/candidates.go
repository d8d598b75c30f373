package feed

import (
	"context"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/repository"
	"github.com/samber/lo"
)

// candidatePool is the raw material for one feed request
type candidatePool struct {
	posts []models.Post

	// Resolved post locations; only filled for local feeds and viewers with a location
	places map[string]ranking.Point
}

func (a *Assembler) candidates(ctx context.Context, t Type, viewer *ranking.ViewerContext, f Filters) (*candidatePool, error) {
	q := repository.CandidateQuery{
		ContentTypes:  f.ContentTypes,
		TaggedPetIDs:  f.PetIDs,
		Topics:        lo.Uniq(lo.Map(f.Topics, func(t string, _ int) string { return normalizeTopic(t) })),
		CreatedAfter:  f.DateRange.Start,
		CreatedBefore: f.DateRange.End,
		Visibilities:  []string{models.VisibilityPublic, models.VisibilityFollowers},
		OrderBy:       repository.OrderRecent,
		Limit:         a.cfg.MaxCandidates,
	}

	pool := &candidatePool{places: map[string]ranking.Point{}}

	switch t {
	case TypeHome:
		authors := viewer.FollowingIDs()
		for author, affinity := range viewer.AffinityByAuthor {
			if affinity >= a.cfg.HighAffinityThreshold && author != viewer.ViewerID && !viewer.IsFollowing(author) {
				authors = append(authors, author)
			}
		}
		if len(authors) == 0 {
			return pool, nil
		}
		q.AuthorIDs = authors

	case TypeFollowing:
		q.AuthorIDs = viewer.FollowingIDs()
		if len(q.AuthorIDs) == 0 {
			return pool, nil
		}

	case TypeExplore:
		q.Visibilities = []string{models.VisibilityPublic}
		q.ExcludeAuthorID = viewer.ViewerID
		q.OrderBy = repository.OrderRelevance

	case TypeLocal:
		if viewer.Location == nil {
			return pool, nil
		}
		near, err := a.places.PlacesNear(ctx, viewer.Location.Lat, viewer.Location.Lng, a.cfg.LocalRadiusKm)
		if err != nil {
			return nil, err
		}
		for _, p := range near {
			pool.places[p.ID] = ranking.Point{Lat: p.Latitude, Lng: p.Longitude}
		}
		if len(pool.places) == 0 {
			return pool, nil
		}
		q.PlaceIDs = lo.Keys(pool.places)

	case TypeMyPets:
		if len(viewer.PetIDs) == 0 {
			return pool, nil
		}
		q.PetIDs = append([]string{}, viewer.PetIDs...)
	}

	posts, err := a.posts.FindCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	pool.posts = posts

	// Personalized feeds use the viewer's distance to each post for the proximity bonus
	if t.Personalized() && viewer.Location != nil {
		a.resolvePlaces(ctx, pool)
	}

	return pool, nil
}

func (a *Assembler) resolvePlaces(ctx context.Context, pool *candidatePool) {
	ids := lo.Uniq(lo.FilterMap(pool.posts, func(p models.Post, _ int) (string, bool) {
		if p.PlaceID == nil {
			return "", false
		}
		return *p.PlaceID, true
	}))
	if len(ids) == 0 {
		return
	}

	places, err := a.places.PlacesByID(ctx, ids)
	if err != nil {
		logWarn("Failed to resolve post places, skipping proximity bonus", err)
		return
	}
	for id, p := range places {
		pool.places[id] = ranking.Point{Lat: p.Latitude, Lng: p.Longitude}
	}
}
