// Package seed fills a database with realistic pet-social data for local development.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Counts sizes a seeding run
type Counts struct {
	Users        int
	Places       int
	Posts        int
	MaxFollows   int // per user
	Saves        int
	Interactions int
}

// DevCounts is the default size for a development database
func DevCounts() Counts {
	return Counts{
		Users:        150,
		Places:       40,
		Posts:        1200,
		MaxFollows:   25,
		Saves:        800,
		Interactions: 3000,
	}
}

// TestCounts is a minimal data set for smoke testing
func TestCounts() Counts {
	return Counts{
		Users:        8,
		Places:       4,
		Posts:        30,
		MaxFollows:   4,
		Saves:        10,
		Interactions: 20,
	}
}

// Summary reports what a run inserted
type Summary struct {
	Users        int  `json:"users"`
	Pets         int  `json:"pets"`
	Places       int  `json:"places"`
	Posts        int  `json:"posts"`
	Follows      int  `json:"follows"`
	PetFollows   int  `json:"pet_follows"`
	Saves        int  `json:"saves"`
	Interactions int  `json:"interactions"`
	Preferences  int  `json:"preferences"`
	Skipped      bool `json:"skipped"`
}

// City centers users and places cluster around, so local feeds have content
var hubs = []struct {
	name     string
	lat, lng float64
}{
	{"Austin", 30.2672, -97.7431},
	{"Portland", 45.5152, -122.6784},
	{"Berlin", 52.5200, 13.4050},
	{"Melbourne", -37.8136, 144.9631},
}

var topics = []string{
	"dogsofinstagram", "catsofinstagram", "puppy", "kitten", "rescue", "adoptdontshop",
	"dogpark", "training", "vetvisit", "petfood", "grooming", "hiking", "beach", "sleepy", "zoomies",
}

// Weighted towards photos and text
var postTypes = []string{
	models.PostTypePhoto, models.PostTypePhoto, models.PostTypePhoto,
	models.PostTypeText, models.PostTypeText,
	models.PostTypeVideo, models.PostTypePoll, models.PostTypeMarketplace, models.PostTypeEvent,
}

var interactionKinds = []models.InteractionKind{
	models.InteractionLike, models.InteractionLike, models.InteractionLike,
	models.InteractionComment, models.InteractionComment,
	models.InteractionMessage, models.InteractionShare, models.InteractionView,
}

var (
	placeKinds = []string{"Dog Park", "Pet Store", "Vet Clinic", "Cafe", "Trailhead", "Beach"}
	reactions  = []string{"love", "paw", "haha", "wow"}
	mutedWords = []string{"giveaway", "sponsored", "crypto", "spoiler"}
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	// Seed returns an error only for invalid sources
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, now: time.Now}
}

// Seed inserts a social graph, posts and engagement sized by c.
// A database that already holds at least c.Users users is left untouched.
func (s *Seeder) Seed(ctx context.Context, c Counts) (*Summary, error) {
	db := s.db.WithContext(ctx)
	summary := &Summary{}

	var existing int64
	if err := db.Model(&models.User{}).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if existing >= int64(c.Users) {
		logger.Log.Info("Found existing users, skipping seed", zap.Int64("users", existing))
		summary.Skipped = true
		return summary, nil
	}

	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(db, c.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	summary.Users = len(users)

	logger.Log.Info("Creating pets...")
	pets, err := s.seedPets(db, users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed pets: %w", err)
	}
	summary.Pets = len(pets)

	logger.Log.Info("Creating places...")
	places, err := s.seedPlaces(db, c.Places)
	if err != nil {
		return nil, fmt.Errorf("failed to seed places: %w", err)
	}
	summary.Places = len(places)

	logger.Log.Info("Creating follows...")
	if summary.Follows, err = s.seedFollows(db, users, c.MaxFollows); err != nil {
		return nil, fmt.Errorf("failed to seed follows: %w", err)
	}
	if summary.PetFollows, err = s.seedPetFollows(db, users, pets); err != nil {
		return nil, fmt.Errorf("failed to seed pet follows: %w", err)
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(db, users, pets, places, c.Posts)
	if err != nil {
		return nil, fmt.Errorf("failed to seed posts: %w", err)
	}
	summary.Posts = len(posts)

	logger.Log.Info("Creating engagement...")
	if summary.Saves, err = s.seedSaves(db, users, posts, c.Saves); err != nil {
		return nil, fmt.Errorf("failed to seed saves: %w", err)
	}
	if summary.Interactions, err = s.seedInteractions(db, users, c.Interactions); err != nil {
		return nil, fmt.Errorf("failed to seed interactions: %w", err)
	}

	logger.Log.Info("Creating user preferences...")
	if summary.Preferences, err = s.seedPreferences(db, users, posts); err != nil {
		return nil, fmt.Errorf("failed to seed user preferences: %w", err)
	}

	logger.Log.Info("Seed complete",
		zap.Int("users", summary.Users),
		zap.Int("posts", summary.Posts),
		zap.Int("follows", summary.Follows))
	return summary, nil
}

// Clean removes every row the seeder writes
func (s *Seeder) Clean(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	// Delete in reverse order of dependencies
	tables := []string{
		"hidden_posts", "muted_users", "user_preferences", "interactions", "saved_posts",
		"post_pet_tags", "posts", "pet_follows", "follows", "places", "pets", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(db *gorm.DB, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	taken := map[string]bool{}

	for len(users) < count {
		username := strings.ToLower(gofakeit.Username())
		if taken[username] {
			continue
		}
		taken[username] = true

		user := models.User{
			Username:    username,
			DisplayName: gofakeit.Name(),
			AvatarURL:   fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			CreatedAt:   gofakeit.DateRange(s.now().AddDate(0, -6, 0), s.now().AddDate(0, 0, -8)),
		}
		// most users share a location; the rest only see non-local feeds
		if gofakeit.Number(1, 100) <= 80 {
			lat, lng := nearHub(0.15)
			user.Latitude, user.Longitude = &lat, &lng
		}
		users = append(users, user)
	}

	if err := db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) seedPets(db *gorm.DB, users []models.User) ([]models.Pet, error) {
	var pets []models.Pet
	for _, u := range users {
		n := gofakeit.Number(0, 3)
		for i := 0; i < n; i++ {
			pets = append(pets, models.Pet{
				OwnerID:   u.ID,
				Name:      gofakeit.PetName(),
				Species:   gofakeit.Animal(),
				AvatarURL: fmt.Sprintf("https://api.dicebear.com/7.x/thumbs/png?seed=%s-%d", u.Username, i),
				CreatedAt: u.CreatedAt,
			})
		}
	}
	if len(pets) == 0 {
		return pets, nil
	}
	if err := db.CreateInBatches(&pets, 100).Error; err != nil {
		return nil, err
	}
	return pets, nil
}

func (s *Seeder) seedPlaces(db *gorm.DB, count int) ([]models.Place, error) {
	places := make([]models.Place, 0, count)
	for i := 0; i < count; i++ {
		lat, lng := nearHub(0.1)
		places = append(places, models.Place{
			Name:      fmt.Sprintf("%s %s", gofakeit.LastName(), pick(placeKinds)),
			Latitude:  lat,
			Longitude: lng,
		})
	}
	if count == 0 {
		return places, nil
	}
	if err := db.CreateInBatches(&places, 100).Error; err != nil {
		return nil, err
	}
	return places, nil
}

func (s *Seeder) seedFollows(db *gorm.DB, users []models.User, maxPerUser int) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}

	var follows []models.Follow
	for _, u := range users {
		target := min(gofakeit.Number(1, max(maxPerUser, 1)), len(users)-1)
		seen := map[string]bool{u.ID: true}
		for len(seen)-1 < target {
			other := pick(users)
			if seen[other.ID] {
				continue
			}
			seen[other.ID] = true
			follows = append(follows, models.Follow{FollowerID: u.ID, FolloweeID: other.ID})
		}
	}

	if err := db.CreateInBatches(&follows, 200).Error; err != nil {
		return 0, err
	}
	return len(follows), nil
}

func (s *Seeder) seedPetFollows(db *gorm.DB, users []models.User, pets []models.Pet) (int, error) {
	if len(pets) == 0 {
		return 0, nil
	}

	var follows []models.PetFollow
	for _, u := range users {
		ids := lo.Uniq(lo.Times(gofakeit.Number(0, 4), func(int) string { return pick(pets).ID }))
		for _, id := range ids {
			follows = append(follows, models.PetFollow{FollowerID: u.ID, PetID: id})
		}
	}
	if len(follows) == 0 {
		return 0, nil
	}

	if err := db.CreateInBatches(&follows, 200).Error; err != nil {
		return 0, err
	}
	return len(follows), nil
}

func (s *Seeder) seedPosts(db *gorm.DB, users []models.User, pets []models.Pet, places []models.Place, count int) ([]models.Post, error) {
	if len(users) == 0 || count == 0 {
		return nil, nil
	}

	petsByOwner := lo.GroupBy(pets, func(p models.Pet) string { return p.OwnerID })
	now := s.now()

	posts := make([]models.Post, 0, count)
	var tags []models.PostPetTag
	for i := 0; i < count; i++ {
		author := pick(users)
		post := models.Post{
			AuthorID:     author.ID,
			PostType:     pick(postTypes),
			Hashtags:     lo.Uniq(lo.Times(gofakeit.Number(0, 3), func(int) string { return pick(topics) })),
			Visibility:   pickVisibility(),
			CommentCount: int64(gofakeit.Number(0, 40)),
			// skewed towards the last two days so the recency buckets all get traffic
			CreatedAt: gofakeit.DateRange(now.Add(-time.Duration(gofakeit.Number(1, 7*24))*time.Hour), now),
		}
		post.TextContent = gofakeit.HipsterSentence()
		for _, tag := range post.Hashtags {
			post.TextContent += " #" + tag
		}

		if gofakeit.Number(1, 100) <= 40 {
			post.Reactions = map[string]int64{}
			for _, r := range reactions {
				if n := gofakeit.Number(0, 60); n > 0 {
					post.Reactions[r] = int64(n)
				}
			}
		} else {
			post.LikeCount = int64(gofakeit.Number(0, 200))
		}

		if len(places) > 0 && gofakeit.Number(1, 100) <= 30 {
			placeID := pick(places).ID
			post.PlaceID = &placeID
		}

		// a few reshares of earlier posts feed the share counts
		if len(posts) > 0 && gofakeit.Number(1, 100) <= 10 {
			original := pick(posts)
			post.SharedPostID = &original.ID
			post.PostType = models.PostTypeText
			if post.CreatedAt.Before(original.CreatedAt) {
				post.CreatedAt = gofakeit.DateRange(original.CreatedAt, now)
			}
		}

		posts = append(posts, post)
		if err := db.Create(&posts[len(posts)-1]).Error; err != nil {
			return nil, err
		}

		owned := petsByOwner[author.ID]
		if len(owned) > 0 && gofakeit.Number(1, 100) <= 60 {
			tagged := lo.Uniq(lo.Times(gofakeit.Number(1, 2), func(int) string { return pick(owned).ID }))
			for pos, petID := range tagged {
				tags = append(tags, models.PostPetTag{PostID: posts[len(posts)-1].ID, PetID: petID, Position: pos})
			}
		}
	}

	if len(tags) > 0 {
		if err := db.CreateInBatches(&tags, 200).Error; err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (s *Seeder) seedSaves(db *gorm.DB, users []models.User, posts []models.Post, count int) (int, error) {
	if len(users) == 0 || len(posts) == 0 {
		return 0, nil
	}

	count = min(count, len(users)*len(posts))
	seen := map[string]bool{}
	saves := make([]models.SavedPost, 0, count)
	for attempts := 0; len(saves) < count && attempts < count*10; attempts++ {
		u, p := pick(users), pick(posts)
		key := u.ID + ":" + p.ID
		if seen[key] {
			continue
		}
		seen[key] = true
		saves = append(saves, models.SavedPost{UserID: u.ID, PostID: p.ID, CreatedAt: p.CreatedAt.Add(time.Hour)})
	}
	if len(saves) == 0 {
		return 0, nil
	}

	if err := db.CreateInBatches(&saves, 200).Error; err != nil {
		return 0, err
	}
	return len(saves), nil
}

func (s *Seeder) seedInteractions(db *gorm.DB, users []models.User, count int) (int, error) {
	if len(users) < 2 || count == 0 {
		return 0, nil
	}

	now := s.now()
	interactions := make([]models.Interaction, 0, count)
	for len(interactions) < count {
		from, to := pick(users), pick(users)
		if from.ID == to.ID {
			continue
		}
		interactions = append(interactions, models.Interaction{
			UserID:       from.ID,
			TargetUserID: to.ID,
			Kind:         pick(interactionKinds),
			CreatedAt:    gofakeit.DateRange(now.AddDate(0, 0, -30), now),
		})
	}

	if err := db.CreateInBatches(&interactions, 200).Error; err != nil {
		return 0, err
	}
	return len(interactions), nil
}

// seedPreferences gives about half the users content and topic preferences,
// and a few of them mutes and hidden posts
func (s *Seeder) seedPreferences(db *gorm.DB, users []models.User, posts []models.Post) (int, error) {
	var prefs []models.UserPreference
	var mutes []models.MutedUser
	var hidden []models.HiddenPost

	for _, u := range users {
		if gofakeit.Number(1, 100) <= 50 {
			pref := models.UserPreference{
				UserID:             u.ID,
				ContentTypeWeights: map[string]float64{},
				TopicWeights:       map[string]float64{},
			}
			for i := 0; i < 2; i++ {
				pref.ContentTypeWeights[pick(postTypes)] = gofakeit.Float64Range(0, 1)
				pref.TopicWeights[pick(topics)] = gofakeit.Float64Range(0.5, 2)
			}
			if gofakeit.Number(1, 100) <= 10 {
				pref.MutedWords = models.StringArray{pick(mutedWords)}
			}
			prefs = append(prefs, pref)
		}

		if len(users) > 1 && gofakeit.Number(1, 100) <= 5 {
			if other := pick(users); other.ID != u.ID {
				mutes = append(mutes, models.MutedUser{UserID: u.ID, MutedID: other.ID})
			}
		}
		if len(posts) > 0 && gofakeit.Number(1, 100) <= 5 {
			hidden = append(hidden, models.HiddenPost{UserID: u.ID, PostID: pick(posts).ID})
		}
	}

	if len(prefs) > 0 {
		if err := db.CreateInBatches(&prefs, 100).Error; err != nil {
			return 0, err
		}
	}
	if len(mutes) > 0 {
		if err := db.Create(&mutes).Error; err != nil {
			return 0, err
		}
	}
	if len(hidden) > 0 {
		if err := db.Create(&hidden).Error; err != nil {
			return 0, err
		}
	}
	return len(prefs), nil
}

func pick[T any](items []T) T {
	return items[gofakeit.Number(0, len(items)-1)]
}

func pickVisibility() string {
	switch n := gofakeit.Number(1, 100); {
	case n <= 80:
		return models.VisibilityPublic
	case n <= 95:
		return models.VisibilityFollowers
	default:
		return models.VisibilityPrivate
	}
}

// nearHub returns a point within spread degrees of a random hub
func nearHub(spread float64) (float64, float64) {
	h := pick(hubs)
	return h.lat + gofakeit.Float64Range(-spread, spread), h.lng + gofakeit.Float64Range(-spread, spread)
}
