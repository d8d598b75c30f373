package feed

import (
	"context"
	"errors"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/repository"
	"github.com/samber/lo"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakePosts struct {
	posts     []models.Post
	shares    map[string]int64
	saves     map[string]int64
	findErr   error
	countErr  error
	lastQuery *repository.CandidateQuery
	calls     int
}

func (f *fakePosts) FindCandidates(_ context.Context, q repository.CandidateQuery) ([]models.Post, error) {
	f.calls++
	f.lastQuery = &q
	if f.findErr != nil {
		return nil, f.findErr
	}

	var out []models.Post
	for _, p := range f.posts {
		if q.AuthorIDs != nil && !lo.Contains(q.AuthorIDs, p.AuthorID) {
			continue
		}
		if q.PetIDs != nil && !lo.SomeBy(p.PetTags, func(t models.PostPetTag) bool { return lo.Contains(q.PetIDs, t.PetID) }) {
			continue
		}
		if q.PlaceIDs != nil && (p.PlaceID == nil || !lo.Contains(q.PlaceIDs, *p.PlaceID)) {
			continue
		}
		if len(q.Visibilities) > 0 && !lo.Contains(q.Visibilities, p.Visibility) {
			continue
		}
		if q.ExcludeAuthorID != "" && p.AuthorID == q.ExcludeAuthorID {
			continue
		}
		if len(q.TaggedPetIDs) > 0 && !lo.SomeBy(p.PetTags, func(t models.PostPetTag) bool { return lo.Contains(q.TaggedPetIDs, t.PetID) }) {
			continue
		}
		if len(q.Topics) > 0 && !lo.SomeBy(p.Hashtags, func(tag string) bool { return lo.Contains(q.Topics, normalizeTopic(tag)) }) {
			continue
		}
		out = append(out, p)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakePosts) ShareCounts(context.Context, ...string) (map[string]int64, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.shares, nil
}

func (f *fakePosts) SaveCounts(context.Context, ...string) (map[string]int64, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.saves, nil
}

type fakeUsers struct {
	users     map[string]*models.User
	followers map[string]int64
	err       error
}

func (f *fakeUsers) FollowerCounts(context.Context, ...string) (map[string]int64, error) {
	return f.followers, nil
}

func (f *fakeUsers) UsersByID(_ context.Context, ids []string) (map[string]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakePlaces struct {
	places []models.Place
}

func (f *fakePlaces) PlacesNear(_ context.Context, lat, lng, radiusKm float64) ([]models.Place, error) {
	return lo.Filter(f.places, func(p models.Place, _ int) bool {
		return ranking.DistanceKm(ranking.Point{Lat: lat, Lng: lng}, ranking.Point{Lat: p.Latitude, Lng: p.Longitude}) <= radiusKm
	}), nil
}

func (f *fakePlaces) PlacesByID(_ context.Context, ids []string) (map[string]*models.Place, error) {
	out := map[string]*models.Place{}
	for i := range f.places {
		if lo.Contains(ids, f.places[i].ID) {
			out[f.places[i].ID] = &f.places[i]
		}
	}
	return out, nil
}

type fakePets struct {
	pets map[string]*models.Pet
}

func (f *fakePets) PetsByID(_ context.Context, ids []string) (map[string]*models.Pet, error) {
	out := map[string]*models.Pet{}
	for _, id := range ids {
		if p, ok := f.pets[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeViewers struct {
	viewers map[string]*ranking.ViewerContext
}

func (f *fakeViewers) ViewerContext(_ context.Context, id string) (*ranking.ViewerContext, error) {
	if vc, ok := f.viewers[id]; ok {
		return vc, nil
	}
	return nil, errors.New("viewer not found")
}

type fixture struct {
	posts   *fakePosts
	users   *fakeUsers
	places  *fakePlaces
	pets    *fakePets
	viewers *fakeViewers
}

func newFixture(posts ...models.Post) *fixture {
	return &fixture{
		posts:   &fakePosts{posts: posts, shares: map[string]int64{}, saves: map[string]int64{}},
		users:   &fakeUsers{users: map[string]*models.User{}, followers: map[string]int64{}},
		places:  &fakePlaces{},
		pets:    &fakePets{pets: map[string]*models.Pet{}},
		viewers: &fakeViewers{viewers: map[string]*ranking.ViewerContext{}},
	}
}

func (f *fixture) assembler() *Assembler {
	a := NewAssembler(f.posts, f.users, f.places, f.pets, f.viewers, DefaultConfig())
	a.now = func() time.Time { return testNow }
	return a
}

func (f *fixture) addViewer(vc *ranking.ViewerContext) {
	f.viewers.viewers[vc.ViewerID] = vc
}

func newPost(id, author string, age time.Duration) models.Post {
	return models.Post{
		ID:         id,
		AuthorID:   author,
		PostType:   models.PostTypeText,
		Visibility: models.VisibilityPublic,
		CreatedAt:  testNow.Add(-age),
	}
}

func withBaseline(p models.Post, score float64) models.Post {
	p.RelevanceScore = &score
	return p
}

func following(ids ...string) map[string]bool {
	return lo.Associate(ids, func(id string) (string, bool) { return id, true })
}

func itemIDs(items []Item) []string {
	return lo.Map(items, func(it Item, _ int) string { return it.ID })
}

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }
