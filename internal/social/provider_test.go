package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUsers struct {
	users     map[string]*models.User
	following map[string][]string
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FollowingIDs(_ context.Context, id string) ([]string, error) {
	return f.following[id], nil
}

type fakePets struct {
	owned  map[string][]string
	owners map[string][]string
}

func (f *fakePets) PetIDsOwnedBy(_ context.Context, id string) ([]string, error) {
	return f.owned[id], nil
}

func (f *fakePets) OwnersOfFollowedPets(_ context.Context, id string) ([]string, error) {
	return f.owners[id], nil
}

type fakeSignals struct {
	interactions []models.Interaction
	since        time.Time
	pref         *models.UserPreference
	muted        []string
	hidden       []string

	interactionsErr error
	prefErr         error
	mutedErr        error
}

func (f *fakeSignals) InteractionsSince(_ context.Context, _ string, since time.Time) ([]models.Interaction, error) {
	f.since = since
	if f.interactionsErr != nil {
		return nil, f.interactionsErr
	}
	return f.interactions, nil
}

func (f *fakeSignals) Preference(context.Context, string) (*models.UserPreference, error) {
	if f.prefErr != nil {
		return nil, f.prefErr
	}
	return f.pref, nil
}

func (f *fakeSignals) MutedUserIDs(context.Context, string) ([]string, error) {
	if f.mutedErr != nil {
		return nil, f.mutedErr
	}
	return f.muted, nil
}

func (f *fakeSignals) HiddenPostIDs(context.Context, string) ([]string, error) {
	return f.hidden, nil
}

func TestAffinities(t *testing.T) {
	interactions := []models.Interaction{
		{UserID: "v", TargetUserID: "bob", Kind: models.InteractionMessage},
		{UserID: "v", TargetUserID: "bob", Kind: models.InteractionComment},
		{UserID: "v", TargetUserID: "bob", Kind: models.InteractionLike},
		{UserID: "v", TargetUserID: "v", Kind: models.InteractionMessage},
		{UserID: "v", TargetUserID: "carol", Kind: "poke"},
	}
	for i := 0; i < 60; i++ {
		interactions = append(interactions, models.Interaction{UserID: "v", TargetUserID: "dave", Kind: models.InteractionComment})
	}

	aff := Affinities(interactions)

	assert.InDelta(t, 1+(0.4+0.3+0.05)/10, aff["bob"], 1e-9)
	assert.Equal(t, 2.0, aff["dave"], "saturates")
	assert.NotContains(t, aff, "v")
	assert.NotContains(t, aff, "carol")
}

func TestProviderViewerContext(t *testing.T) {
	lat, lng := 52.52, 13.40
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	signals := &fakeSignals{
		interactions: []models.Interaction{{UserID: "v", TargetUserID: "bob", Kind: models.InteractionShare}},
		pref: &models.UserPreference{
			ContentTypeWeights: map[string]float64{"photo": 1.5, "poll": 0.25},
			TopicWeights:       map[string]float64{"Dogs": 0.5},
			MutedWords:         models.StringArray{"spoiler"},
		},
		muted:  []string{"troll"},
		hidden: []string{"p9"},
	}
	p := NewProvider(
		&fakeUsers{
			users:     map[string]*models.User{"v": {ID: "v", Latitude: &lat, Longitude: &lng}},
			following: map[string][]string{"v": {"bob", "v"}},
		},
		&fakePets{
			owned:  map[string][]string{"v": {"rex"}},
			owners: map[string][]string{"v": {"carol"}},
		},
		signals,
	)
	p.now = func() time.Time { return now }

	vc, err := p.ViewerContext(context.Background(), "v")
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"bob": true, "carol": true}, vc.Following)
	assert.Equal(t, []string{"rex"}, vc.PetIDs)
	assert.Equal(t, &ranking.Point{Lat: lat, Lng: lng}, vc.Location)
	assert.InDelta(t, 1.02, vc.AffinityByAuthor["bob"], 1e-9)
	assert.Equal(t, 1.0, vc.ContentTypePreferences["photo"])
	assert.Equal(t, 0.25, vc.ContentTypePreferences["poll"])
	assert.Equal(t, 1.5, vc.TopicPreferences["dogs"])
	assert.Equal(t, []string{"spoiler"}, vc.MutedWords)
	assert.True(t, vc.MutedAuthors["troll"])
	assert.True(t, vc.HiddenPosts["p9"])
	assert.Equal(t, now.Add(-AffinityWindow), signals.since)
}

func TestProviderUnknownViewer(t *testing.T) {
	p := NewProvider(&fakeUsers{}, &fakePets{}, &fakeSignals{})

	_, err := p.ViewerContext(context.Background(), "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProviderFailedSignalStaysNeutral(t *testing.T) {
	users := &fakeUsers{
		users:     map[string]*models.User{"v": {ID: "v"}},
		following: map[string][]string{"v": {"bob"}},
	}

	t.Run("interactions", func(t *testing.T) {
		p := NewProvider(users, &fakePets{}, &fakeSignals{
			interactions:    []models.Interaction{{UserID: "v", TargetUserID: "bob", Kind: models.InteractionMessage}},
			muted:           []string{"troll"},
			hidden:          []string{"p9"},
			interactionsErr: errors.New("interactions table timeout"),
		})

		vc, err := p.ViewerContext(context.Background(), "v")
		require.NoError(t, err)
		require.NotNil(t, vc)
		assert.True(t, vc.Partial)
		assert.Empty(t, vc.AffinityByAuthor)
		assert.True(t, vc.IsFollowing("bob"))
		assert.True(t, vc.MutedAuthors["troll"])
		assert.True(t, vc.HiddenPosts["p9"])
	})

	t.Run("mutes and preferences", func(t *testing.T) {
		p := NewProvider(users, &fakePets{}, &fakeSignals{
			interactions: []models.Interaction{{UserID: "v", TargetUserID: "bob", Kind: models.InteractionShare}},
			hidden:       []string{"p9"},
			mutedErr:     errors.New("db down"),
			prefErr:      errors.New("db down"),
		})

		vc, err := p.ViewerContext(context.Background(), "v")
		require.NoError(t, err)
		assert.True(t, vc.Partial)
		assert.Empty(t, vc.MutedAuthors)
		assert.Nil(t, vc.ContentTypePreferences)
		assert.Nil(t, vc.MutedWords)
		assert.InDelta(t, 1.02, vc.AffinityByAuthor["bob"], 1e-9)
		assert.True(t, vc.HiddenPosts["p9"])
	})
}

func TestProviderCompleteContextIsNotPartial(t *testing.T) {
	p := NewProvider(&fakeUsers{users: map[string]*models.User{"v": {ID: "v"}}}, &fakePets{}, &fakeSignals{})

	vc, err := p.ViewerContext(context.Background(), "v")
	require.NoError(t, err)
	assert.False(t, vc.Partial)
	assert.Empty(t, vc.Following)
}
