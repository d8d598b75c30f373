package repository

import (
	"context"
	"testing"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	return testutil.NewDB(t)
}

func createPost(t *testing.T, db *gorm.DB, p models.Post) models.Post {
	if p.PostType == "" {
		p.PostType = models.PostTypeText
	}
	if p.Visibility == "" {
		p.Visibility = models.VisibilityPublic
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func strPtr(s string) *string { return &s }

func TestPostsCreatedSinceExcludesOldAndDeleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	fresh := createPost(t, db, models.Post{ID: "fresh", AuthorID: "u1", CreatedAt: baseTime.Add(-2 * time.Hour)})
	createPost(t, db, models.Post{ID: "old", AuthorID: "u1", CreatedAt: baseTime.Add(-8 * 24 * time.Hour)})
	deleted := createPost(t, db, models.Post{ID: "deleted", AuthorID: "u1", CreatedAt: baseTime.Add(-time.Hour)})
	require.NoError(t, db.Delete(&deleted).Error)

	posts, err := repo.PostsCreatedSince(ctx, baseTime.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, fresh.ID, posts[0].ID)
}

func TestShareAndSaveCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	createPost(t, db, models.Post{ID: "orig", AuthorID: "u1", CreatedAt: baseTime})
	createPost(t, db, models.Post{ID: "other", AuthorID: "u1", CreatedAt: baseTime})
	createPost(t, db, models.Post{ID: "s1", AuthorID: "u2", SharedPostID: strPtr("orig"), CreatedAt: baseTime})
	createPost(t, db, models.Post{ID: "s2", AuthorID: "u3", SharedPostID: strPtr("orig"), CreatedAt: baseTime})
	createPost(t, db, models.Post{ID: "s3", AuthorID: "u3", SharedPostID: strPtr("other"), CreatedAt: baseTime})
	gone := createPost(t, db, models.Post{ID: "s4", AuthorID: "u4", SharedPostID: strPtr("orig"), CreatedAt: baseTime})
	require.NoError(t, db.Delete(&gone).Error)

	require.NoError(t, db.Create(&models.SavedPost{UserID: "u2", PostID: "orig"}).Error)
	require.NoError(t, db.Create(&models.SavedPost{UserID: "u3", PostID: "orig"}).Error)
	require.NoError(t, db.Create(&models.SavedPost{UserID: "u3", PostID: "other"}).Error)

	shares, err := repo.ShareCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"orig": 2, "other": 1}, shares)

	shares, err = repo.ShareCounts(ctx, "orig")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"orig": 2}, shares)

	saves, err := repo.SaveCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"orig": 2, "other": 1}, saves)

	saves, err = repo.SaveCounts(ctx, "other", "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"other": 1}, saves)
}

func TestUpdateRelevanceTouchesOnlyScoreFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	createPost(t, db, models.Post{ID: "p1", AuthorID: "u1", TextContent: "walkies", LikeCount: 4, CreatedAt: baseTime})

	at := baseTime.Add(5 * time.Minute)
	require.NoError(t, repo.UpdateRelevance(ctx, "p1", 2.75, at))

	post, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, post.RelevanceScore)
	assert.Equal(t, 2.75, *post.RelevanceScore)
	require.NotNil(t, post.RelevanceUpdatedAt)
	assert.True(t, at.Equal(*post.RelevanceUpdatedAt))
	assert.Equal(t, "walkies", post.TextContent)
	assert.Equal(t, int64(4), post.LikeCount)

	err = repo.UpdateRelevance(ctx, "missing", 1, at)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindCandidates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	high, low := 5.0, 1.0
	createPost(t, db, models.Post{ID: "a", AuthorID: "u1", PostType: models.PostTypePhoto, RelevanceScore: &low, CreatedAt: baseTime.Add(-time.Hour), Hashtags: models.StringArray{"#Dogs", "park"}})
	createPost(t, db, models.Post{ID: "b", AuthorID: "u2", RelevanceScore: &high, CreatedAt: baseTime.Add(-3 * time.Hour)})
	createPost(t, db, models.Post{ID: "c", AuthorID: "u3", CreatedAt: baseTime.Add(-2 * time.Hour), PlaceID: strPtr("park"), Hashtags: models.StringArray{"Agility"}})
	createPost(t, db, models.Post{ID: "d", AuthorID: "u1", Visibility: models.VisibilityPrivate, CreatedAt: baseTime})
	require.NoError(t, db.Create(&models.PostPetTag{PostID: "b", PetID: "rex", Position: 1}).Error)
	require.NoError(t, db.Create(&models.PostPetTag{PostID: "b", PetID: "fido", Position: 0}).Error)

	t.Run("by author, newest first", func(t *testing.T) {
		posts, err := repo.FindCandidates(ctx, CandidateQuery{AuthorIDs: []string{"u1", "u2"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "a", "b"}, postIDs(posts))
	})

	t.Run("empty author set matches nothing", func(t *testing.T) {
		posts, err := repo.FindCandidates(ctx, CandidateQuery{AuthorIDs: []string{}})
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("by pet with ordered tags", func(t *testing.T) {
		posts, err := repo.FindCandidates(ctx, CandidateQuery{PetIDs: []string{"rex"}})
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, []string{"fido", "rex"}, posts[0].PetIDs())
	})

	t.Run("tagged pets and topics narrow in the query", func(t *testing.T) {
		posts, err := repo.FindCandidates(ctx, CandidateQuery{AuthorIDs: []string{"u1", "u2"}, TaggedPetIDs: []string{"fido", "tom"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, postIDs(posts))

		posts, err = repo.FindCandidates(ctx, CandidateQuery{Topics: []string{"dogs"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, postIDs(posts))

		posts, err = repo.FindCandidates(ctx, CandidateQuery{Topics: []string{"cats", "agility"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, postIDs(posts))
	})

	t.Run("relevance order puts unscored last", func(t *testing.T) {
		posts, err := repo.FindCandidates(ctx, CandidateQuery{
			Visibilities:    []string{models.VisibilityPublic},
			ExcludeAuthorID: "nobody",
			OrderBy:         OrderRelevance,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c"}, postIDs(posts))
	})

	t.Run("filters and limit", func(t *testing.T) {
		after := baseTime.Add(-150 * time.Minute)
		posts, err := repo.FindCandidates(ctx, CandidateQuery{
			Visibilities:    []string{models.VisibilityPublic},
			ExcludeAuthorID: "u1",
			CreatedAfter:    &after,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, postIDs(posts))

		posts, err = repo.FindCandidates(ctx, CandidateQuery{ContentTypes: []string{models.PostTypePhoto}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, postIDs(posts))

		posts, err = repo.FindCandidates(ctx, CandidateQuery{PlaceIDs: []string{"park"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, postIDs(posts))

		posts, err = repo.FindCandidates(ctx, CandidateQuery{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})
}

func TestFollowGraph(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	pets := NewPetRepository(db)
	ctx := context.Background()

	for _, u := range []models.User{
		{ID: "alice", Username: "alice", DisplayName: "Alice"},
		{ID: "bob", Username: "bob", DisplayName: "Bob"},
		{ID: "carol", Username: "carol", DisplayName: "Carol"},
	} {
		require.NoError(t, db.Create(&u).Error)
	}
	require.NoError(t, db.Create(&models.Follow{FollowerID: "alice", FolloweeID: "bob"}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: "carol", FolloweeID: "bob"}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: "bob", FolloweeID: "carol"}).Error)

	require.NoError(t, db.Create(&models.Pet{ID: "rex", OwnerID: "carol", Name: "Rex", Species: "dog"}).Error)
	require.NoError(t, db.Create(&models.Pet{ID: "tom", OwnerID: "carol", Name: "Tom", Species: "cat"}).Error)
	require.NoError(t, db.Create(&models.PetFollow{FollowerID: "alice", PetID: "rex"}).Error)
	require.NoError(t, db.Create(&models.PetFollow{FollowerID: "alice", PetID: "tom"}).Error)

	counts, err := users.FollowerCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"bob": 2, "carol": 1}, counts)

	counts, err = users.FollowerCounts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"bob": 2}, counts)

	following, err := users.FollowingIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, following)

	byID, err := users.UsersByID(ctx, []string{"alice", "ghost"})
	require.NoError(t, err)
	require.Contains(t, byID, "alice")
	assert.NotContains(t, byID, "ghost")
	assert.Equal(t, "Alice", byID["alice"].DisplayName)

	owners, err := pets.OwnersOfFollowedPets(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, owners)

	owned, err := pets.PetIDsOwnedBy(ctx, "carol")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"rex", "tom"}, owned)

	petsByID, err := pets.PetsByID(ctx, []string{"rex"})
	require.NoError(t, err)
	assert.Equal(t, "Rex", petsByID["rex"].Name)
}

func TestPlacesNear(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlaceRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Place{ID: "tiergarten", Name: "Tiergarten", Latitude: 52.5145, Longitude: 13.3501}).Error)
	require.NoError(t, db.Create(&models.Place{ID: "potsdam", Name: "Potsdam", Latitude: 52.3906, Longitude: 13.0645}).Error)
	require.NoError(t, db.Create(&models.Place{ID: "munich", Name: "Englischer Garten", Latitude: 48.1642, Longitude: 11.6056}).Error)

	near, err := repo.PlacesNear(ctx, 52.5200, 13.4050, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"tiergarten"}, placeIDs(near))

	near, err = repo.PlacesNear(ctx, 52.5200, 13.4050, 40)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tiergarten", "potsdam"}, placeIDs(near))

	near, err = repo.PlacesNear(ctx, 52.5200, 13.4050, 0)
	require.NoError(t, err)
	assert.Empty(t, near)

	byID, err := repo.PlacesByID(ctx, []string{"munich"})
	require.NoError(t, err)
	assert.Equal(t, "Englischer Garten", byID["munich"].Name)
}

func TestPlacesNearAcrossAntimeridian(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlaceRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Place{ID: "east", Name: "East", Latitude: -16.5, Longitude: 179.95}).Error)
	require.NoError(t, db.Create(&models.Place{ID: "west", Name: "West", Latitude: -16.5, Longitude: -179.95}).Error)
	require.NoError(t, db.Create(&models.Place{ID: "far", Name: "Far", Latitude: -16.5, Longitude: 178.0}).Error)

	near, err := repo.PlacesNear(ctx, -16.5, 179.9, 25)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"east", "west"}, placeIDs(near))

	near, err = repo.PlacesNear(ctx, -16.5, -179.9, 25)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"east", "west"}, placeIDs(near))
}

func TestSocialSignals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSocialRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Interaction{UserID: "alice", TargetUserID: "bob", Kind: models.InteractionComment, CreatedAt: baseTime.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Interaction{UserID: "alice", TargetUserID: "bob", Kind: models.InteractionLike, CreatedAt: baseTime.Add(-40 * 24 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.MutedUser{UserID: "alice", MutedID: "troll"}).Error)
	require.NoError(t, db.Create(&models.HiddenPost{UserID: "alice", PostID: "p9"}).Error)
	require.NoError(t, db.Create(&models.UserPreference{
		UserID:             "alice",
		ContentTypeWeights: map[string]float64{"photo": 0.9},
		TopicWeights:       map[string]float64{"dogs": 0.5},
		MutedWords:         models.StringArray{"spoiler"},
	}).Error)

	interactions, err := repo.InteractionsSince(ctx, "alice", baseTime.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, models.InteractionComment, interactions[0].Kind)

	pref, err := repo.Preference(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, 0.9, pref.ContentTypeWeights["photo"])
	assert.Equal(t, models.StringArray{"spoiler"}, pref.MutedWords)

	pref, err = repo.Preference(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, pref)

	muted, err := repo.MutedUserIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"troll"}, muted)

	hidden, err := repo.HiddenPostIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"p9"}, hidden)
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func placeIDs(places []models.Place) []string {
	ids := make([]string, 0, len(places))
	for _, p := range places {
		ids = append(ids, p.ID)
	}
	return ids
}
