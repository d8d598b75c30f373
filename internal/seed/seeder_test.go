package seed

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	db := testutil.NewDB(t)
	s := NewSeeder(db)
	require.NoError(t, gofakeit.Seed(42))
	return s, db
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeedCreatesConsistentGraph(t *testing.T) {
	s, db := newTestSeeder(t)
	c := TestCounts()

	summary, err := s.Seed(context.Background(), c)
	require.NoError(t, err)
	require.False(t, summary.Skipped)

	assert.Equal(t, c.Users, summary.Users)
	assert.Equal(t, c.Posts, summary.Posts)
	assert.Equal(t, c.Places, summary.Places)
	assert.Equal(t, int64(c.Users), count(t, db, &models.User{}))
	assert.Equal(t, int64(c.Posts), count(t, db, &models.Post{}))
	assert.Equal(t, int64(summary.Follows), count(t, db, &models.Follow{}))
	assert.Equal(t, int64(summary.Saves), count(t, db, &models.SavedPost{}))
	assert.Equal(t, int64(c.Interactions), count(t, db, &models.Interaction{}))

	var follows []models.Follow
	require.NoError(t, db.Find(&follows).Error)
	pairs := map[string]bool{}
	for _, f := range follows {
		assert.NotEqual(t, f.FollowerID, f.FolloweeID, "self follow")
		key := f.FollowerID + ">" + f.FolloweeID
		assert.False(t, pairs[key], "duplicate follow %s", key)
		pairs[key] = true
	}

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	ids := map[string]models.Post{}
	for _, p := range posts {
		ids[p.ID] = p
	}
	for _, p := range posts {
		assert.NotEmpty(t, p.AuthorID)
		assert.Contains(t, []string{models.VisibilityPublic, models.VisibilityFollowers, models.VisibilityPrivate}, p.Visibility)
		assert.False(t, p.CreatedAt.After(time.Now()), "post from the future")
		if p.SharedPostID != nil {
			original, ok := ids[*p.SharedPostID]
			require.True(t, ok, "share of unknown post")
			assert.False(t, p.CreatedAt.Before(original.CreatedAt))
		}
	}

	var tags []models.PostPetTag
	require.NoError(t, db.Find(&tags).Error)
	for _, tag := range tags {
		var pet models.Pet
		require.NoError(t, db.First(&pet, "id = ?", tag.PetID).Error)
		assert.Equal(t, ids[tag.PostID].AuthorID, pet.OwnerID, "tagged pet belongs to the author")
	}
}

func TestSeedSkipsPopulatedDatabase(t *testing.T) {
	s, db := newTestSeeder(t)
	c := TestCounts()

	_, err := s.Seed(context.Background(), c)
	require.NoError(t, err)

	summary, err := s.Seed(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, summary.Skipped)
	assert.Equal(t, int64(c.Posts), count(t, db, &models.Post{}))
}

func TestClean(t *testing.T) {
	s, db := newTestSeeder(t)

	_, err := s.Seed(context.Background(), TestCounts())
	require.NoError(t, err)
	require.NoError(t, s.Clean(context.Background()))

	for _, m := range []interface{}{
		&models.User{}, &models.Pet{}, &models.Place{}, &models.Post{}, &models.Follow{},
		&models.PetFollow{}, &models.SavedPost{}, &models.Interaction{}, &models.UserPreference{},
	} {
		assert.Zero(t, count(t, db, m))
	}
}

func TestPickVisibilityDistribution(t *testing.T) {
	require.NoError(t, gofakeit.Seed(7))

	seen := map[string]int{}
	for i := 0; i < 2000; i++ {
		seen[pickVisibility()]++
	}
	assert.Greater(t, seen[models.VisibilityPublic], seen[models.VisibilityFollowers])
	assert.Greater(t, seen[models.VisibilityFollowers], seen[models.VisibilityPrivate])
	assert.Positive(t, seen[models.VisibilityPrivate])
}
