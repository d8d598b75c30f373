package feed

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/goleaf/petssocnnetworkmobile-sub017/internal/errors"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/metrics"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// PostReader is the post store as seen by the feed
type PostReader interface {
	FindCandidates(ctx context.Context, q repository.CandidateQuery) ([]models.Post, error)
	ShareCounts(ctx context.Context, postIDs ...string) (map[string]int64, error)
	SaveCounts(ctx context.Context, postIDs ...string) (map[string]int64, error)
}

// UserReader is the account store as seen by the feed
type UserReader interface {
	FollowerCounts(ctx context.Context, userIDs ...string) (map[string]int64, error)
	UsersByID(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// PlaceReader is the place store as seen by the feed
type PlaceReader interface {
	PlacesNear(ctx context.Context, lat, lng, radiusKm float64) ([]models.Place, error)
	PlacesByID(ctx context.Context, ids []string) (map[string]*models.Place, error)
}

// PetReader is the pet store as seen by the feed
type PetReader interface {
	PetsByID(ctx context.Context, ids []string) (map[string]*models.Pet, error)
}

// ViewerProvider resolves the social context of the requesting user
type ViewerProvider interface {
	ViewerContext(ctx context.Context, viewerID string) (*ranking.ViewerContext, error)
}

// Config tunes candidate selection
type Config struct {
	MaxCandidates         int
	LocalRadiusKm         float64
	HighQualityMinScore   float64
	HighAffinityThreshold float64
}

func DefaultConfig() Config {
	return Config{
		MaxCandidates:         500,
		LocalRadiusKm:         25,
		HighQualityMinScore:   1.0,
		HighAffinityThreshold: 1.1,
	}
}

// Assembler builds ranked, paginated feeds
type Assembler struct {
	posts   PostReader
	users   UserReader
	places  PlaceReader
	pets    PetReader
	viewers ViewerProvider
	cfg     Config
	now     func() time.Time
}

func NewAssembler(posts PostReader, users UserReader, places PlaceReader, pets PetReader, viewers ViewerProvider, cfg Config) *Assembler {
	defaults := DefaultConfig()
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaults.MaxCandidates
	}
	if cfg.LocalRadiusKm <= 0 {
		cfg.LocalRadiusKm = defaults.LocalRadiusKm
	}
	return &Assembler{
		posts:   posts,
		users:   users,
		places:  places,
		pets:    pets,
		viewers: viewers,
		cfg:     cfg,
		now:     time.Now,
	}
}

// GetFeed returns one page of the viewer's feed.
// Invalid queries fail with a validation *APIError; a failed candidate read fails the request.
func (a *Assembler) GetFeed(ctx context.Context, viewerID string, q Query) (*Page, error) {
	ctx, span := otel.Tracer("feed").Start(ctx, "feed.GetFeed")
	defer span.End()
	span.SetAttributes(attribute.String("feed.type", string(q.Type)))

	m := metrics.Get()
	started := time.Now()

	page, err := a.getFeed(ctx, viewerID, q)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if _, ok := apperrors.As(err); ok {
			outcome = "invalid"
		} else {
			logger.Log.Error("Feed request failed",
				logger.WithUserID(viewerID),
				logger.WithFeedType(string(q.Type)),
				zap.Error(err),
			)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	feedType := string(q.Type)
	if !q.Type.Valid() {
		feedType = "unknown"
	}
	m.FeedRequestsTotal.WithLabelValues(feedType, outcome).Inc()
	m.FeedGenerationTime.WithLabelValues(feedType).Observe(time.Since(started).Seconds())

	return page, err
}

func (a *Assembler) getFeed(ctx context.Context, viewerID string, q Query) (*Page, error) {
	if !q.Type.Valid() {
		return nil, apperrors.ValidationError("type", fmt.Sprintf("unknown feed type %q", q.Type))
	}
	limit := ClampLimit(q.Limit)

	var after *cursor
	if q.Cursor != "" {
		c, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, apperrors.ValidationError("cursor", "cursor is malformed")
		}
		if c.FeedType != q.Type {
			return nil, apperrors.ValidationError("cursor", "cursor belongs to a different feed type")
		}
		after = &c
	}

	if q.Filters.DateRange.Empty() {
		return emptyPage(), nil
	}

	viewer := a.viewerContext(ctx, viewerID)
	now := a.now()
	if after != nil {
		now = after.rankedAt(now)
	}

	pool, err := a.candidates(ctx, q.Type, viewer, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("load %s candidates: %w", q.Type, err)
	}

	pool.posts = a.filter(pool.posts, viewer, q.Filters)

	items := a.rank(ctx, q.Type, viewer, pool, q.Filters, now)
	metrics.Get().FeedCandidates.WithLabelValues(string(q.Type)).Observe(float64(len(items)))

	start := 0
	if after != nil {
		for start < len(items) && !after.ranksAfter(&items[start]) {
			start++
		}
	}
	end := min(start+limit, len(items))
	window := items[start:end]

	page := &Page{
		Items:   a.decorate(ctx, window),
		HasMore: end < len(items),
		Total:   len(items),
	}
	if page.HasMore && len(window) > 0 {
		next, err := cursorFor(q.Type, &window[len(window)-1], now).encode()
		if err != nil {
			return nil, fmt.Errorf("encode cursor: %w", err)
		}
		page.NextCursor = &next
	}

	logger.Log.Debug("Feed assembled",
		logger.WithUserID(viewerID),
		logger.WithFeedType(string(q.Type)),
		zap.Int("candidates", len(items)),
		zap.Int("returned", len(page.Items)),
		zap.Bool("has_more", page.HasMore),
	)

	return page, nil
}

// viewerContext never fails; an unresolvable viewer ranks like an anonymous one
func (a *Assembler) viewerContext(ctx context.Context, viewerID string) *ranking.ViewerContext {
	m := metrics.Get()
	if a.viewers == nil {
		m.ViewerContextsTotal.WithLabelValues("neutral").Inc()
		return ranking.NeutralViewer(viewerID)
	}

	vc, err := a.viewers.ViewerContext(ctx, viewerID)
	if err != nil || vc == nil {
		logger.Log.Warn("Viewer context unavailable, using neutral ranking",
			logger.WithUserID(viewerID),
			zap.Error(err),
		)
		m.ViewerContextsTotal.WithLabelValues("neutral").Inc()
		return ranking.NeutralViewer(viewerID)
	}

	if vc.Partial {
		m.ViewerContextsTotal.WithLabelValues("partial").Inc()
	} else {
		m.ViewerContextsTotal.WithLabelValues("resolved").Inc()
	}
	return vc
}
