package social

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Interaction history older than this does not contribute to affinity
const AffinityWindow = 30 * 24 * time.Hour

// Weight of each interaction kind towards affinity
var interactionWeights = map[models.InteractionKind]float64{
	models.InteractionMessage: 0.4,
	models.InteractionComment: 0.3,
	models.InteractionShare:   0.2,
	models.InteractionLike:    0.05,
	models.InteractionView:    0.05,
}

// Summed interaction weight that saturates affinity
const affinitySaturation = 10.0

// UserReader is the account store as seen by the provider
type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// PetReader is the pet store as seen by the provider
type PetReader interface {
	PetIDsOwnedBy(ctx context.Context, ownerID string) ([]string, error)
	OwnersOfFollowedPets(ctx context.Context, userID string) ([]string, error)
}

// SignalReader supplies interactions, preferences and negative signals
type SignalReader interface {
	InteractionsSince(ctx context.Context, userID string, since time.Time) ([]models.Interaction, error)
	Preference(ctx context.Context, userID string) (*models.UserPreference, error)
	MutedUserIDs(ctx context.Context, userID string) ([]string, error)
	HiddenPostIDs(ctx context.Context, userID string) ([]string, error)
}

// Provider builds viewer contexts from the database
type Provider struct {
	users   UserReader
	pets    PetReader
	signals SignalReader
	now     func() time.Time
}

func NewProvider(users UserReader, pets PetReader, signals SignalReader) *Provider {
	return &Provider{
		users:   users,
		pets:    pets,
		signals: signals,
		now:     time.Now,
	}
}

// ViewerContext assembles everything the feed knows about viewerID.
// An unknown viewer is an error; callers fall back to a neutral viewer.
// Any other failed read leaves only that signal neutral and marks the context partial.
func (p *Provider) ViewerContext(ctx context.Context, viewerID string) (*ranking.ViewerContext, error) {
	user, err := p.users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load viewer %s: %w", viewerID, err)
	}

	vc := ranking.NeutralViewer(viewerID)
	if user.Latitude != nil && user.Longitude != nil {
		vc.Location = &ranking.Point{Lat: *user.Latitude, Lng: *user.Longitude}
	}

	var (
		following, petOwners, petIDs, muted, hidden []string
		interactions                                []models.Interaction
		pref                                        *models.UserPreference
		mu                                          sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	read := func(signal string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				logger.Log.Warn("Viewer signal unavailable, leaving it neutral",
					logger.WithUserID(viewerID),
					zap.String("signal", signal),
					zap.Error(err),
				)
				mu.Lock()
				vc.Partial = true
				mu.Unlock()
			}
			return nil
		})
	}

	read("following", func(ctx context.Context) (err error) {
		following, err = p.users.FollowingIDs(ctx, viewerID)
		return err
	})
	read("followed_pets", func(ctx context.Context) (err error) {
		petOwners, err = p.pets.OwnersOfFollowedPets(ctx, viewerID)
		return err
	})
	read("pets", func(ctx context.Context) (err error) {
		petIDs, err = p.pets.PetIDsOwnedBy(ctx, viewerID)
		return err
	})
	read("interactions", func(ctx context.Context) (err error) {
		interactions, err = p.signals.InteractionsSince(ctx, viewerID, p.now().Add(-AffinityWindow))
		return err
	})
	read("preferences", func(ctx context.Context) (err error) {
		pref, err = p.signals.Preference(ctx, viewerID)
		return err
	})
	read("muted_users", func(ctx context.Context) (err error) {
		muted, err = p.signals.MutedUserIDs(ctx, viewerID)
		return err
	})
	read("hidden_posts", func(ctx context.Context) (err error) {
		hidden, err = p.signals.HiddenPostIDs(ctx, viewerID)
		return err
	})
	g.Wait()

	vc.Following = toSet(lo.Without(lo.Uniq(append(following, petOwners...)), viewerID))
	vc.PetIDs = petIDs
	vc.AffinityByAuthor = Affinities(interactions)
	applyPreference(vc, pref)
	vc.MutedAuthors = toSet(muted)
	vc.HiddenPosts = toSet(hidden)

	return vc, nil
}

// Affinities turns interaction history into per-author multipliers in [1, 2]
func Affinities(interactions []models.Interaction) map[string]float64 {
	sums := make(map[string]float64)
	for _, in := range interactions {
		if w, ok := interactionWeights[in.Kind]; ok && in.TargetUserID != "" && in.TargetUserID != in.UserID {
			sums[in.TargetUserID] += w
		}
	}

	out := make(map[string]float64, len(sums))
	for author, sum := range sums {
		out[author] = ranking.NeutralAffinity + math.Min(1, sum/affinitySaturation)
	}
	return out
}

func applyPreference(vc *ranking.ViewerContext, pref *models.UserPreference) {
	if pref == nil {
		return
	}

	if len(pref.ContentTypeWeights) > 0 {
		vc.ContentTypePreferences = make(map[string]float64, len(pref.ContentTypeWeights))
		for t, w := range pref.ContentTypeWeights {
			vc.ContentTypePreferences[t] = clamp01(w)
		}
	}

	if len(pref.TopicWeights) > 0 {
		vc.TopicPreferences = make(map[string]float64, len(pref.TopicWeights))
		for tag, w := range pref.TopicWeights {
			vc.TopicPreferences[strings.ToLower(tag)] = ranking.NeutralTopic + clamp01(w)
		}
	}

	vc.MutedWords = append([]string(nil), pref.MutedWords...)
}

func toSet(ids []string) map[string]bool {
	return lo.Associate(ids, func(id string) (string, bool) { return id, true })
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
