package relevance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/metrics"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned when a recompute is requested while another one is running
var ErrRunInProgress = errors.New("relevance: recompute already in progress")

// PostStore is the post store as seen by the recompute job
type PostStore interface {
	PostsCreatedSince(ctx context.Context, since time.Time) ([]models.Post, error)
	ShareCounts(ctx context.Context, postIDs ...string) (map[string]int64, error)
	SaveCounts(ctx context.Context, postIDs ...string) (map[string]int64, error)
	UpdateRelevance(ctx context.Context, postID string, score float64, at time.Time) error
}

// FollowerCounter supplies author follower counts
type FollowerCounter interface {
	FollowerCounts(ctx context.Context, userIDs ...string) (map[string]int64, error)
}

// RunLock excludes concurrent runs across processes
type RunLock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Config controls the recompute job
type Config struct {
	Interval       time.Duration
	WindowDays     int
	Workers        int
	MaxRunDuration time.Duration
}

// DefaultConfig returns a 5 minute cadence over the last 7 days
func DefaultConfig() Config {
	return Config{
		Interval:       5 * time.Minute,
		WindowDays:     7,
		Workers:        8,
		MaxRunDuration: 4 * time.Minute,
	}
}

// Result summarizes one recompute run
type Result struct {
	Considered int           `json:"considered"`
	Updated    int           `json:"updated"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLock adds a cross-process lease around each run
func WithLock(lock RunLock) Option {
	return func(s *Scheduler) { s.lock = lock }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler keeps the cached baseline relevance of recent posts fresh.
// It is owned by the process that calls Start and must be stopped by it.
type Scheduler struct {
	posts     PostStore
	followers FollowerCounter
	lock      RunLock
	cfg       Config
	now       func() time.Time

	running atomic.Bool

	engine    *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewScheduler(posts PostStore, followers FollowerCounter, cfg Config, opts ...Option) *Scheduler {
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = defaults.WindowDays
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		posts:     posts,
		followers: followers,
		cfg:       cfg,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs one recompute immediately and then every Interval. Calling it again is a no-op.
func (s *Scheduler) Start() error {
	var err error
	s.startOnce.Do(func() {
		cl := cronLogger{}
		s.engine = cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		)

		if _, err = s.engine.AddJob("@every "+s.cfg.Interval.String(), s); err != nil {
			err = fmt.Errorf("schedule relevance recompute: %w", err)
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Run()
		}()

		s.engine.Start()

		logger.Log.Info("Relevance scheduler started",
			zap.Duration("interval", s.cfg.Interval),
			zap.Int("window_days", s.cfg.WindowDays),
			zap.Int("workers", s.cfg.Workers),
		)
	})
	return err
}

// Stop halts scheduling and waits for an in-flight run until ctx expires,
// after which the run is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			if s.engine != nil {
				<-s.engine.Stop().Done()
			}
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
		s.cancel()
		logger.Log.Info("Relevance scheduler stopped")
	})
	return err
}

// Run implements cron.Job. Failures are logged; the next tick retries.
func (s *Scheduler) Run() {
	_, err := s.Recompute(s.ctx, s.cfg.WindowDays)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunInProgress):
		logger.Log.Debug("Skipping relevance recompute, previous run still active")
	case errors.Is(err, context.Canceled):
		logger.Log.Debug("Relevance recompute cancelled")
	default:
		logger.Log.Error("Relevance recompute failed", zap.Error(err))
	}
}

// Recompute rewrites the baseline relevance of every post created in the last windowDays.
// windowDays <= 0 uses the configured window.
func (s *Scheduler) Recompute(ctx context.Context, windowDays int) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}

	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx)
		switch {
		case err != nil:
			logger.Log.Warn("Relevance lock unavailable, running with local guard only", zap.Error(err))
		case !ok:
			return nil, ErrRunInProgress
		default:
			defer func() {
				if err := s.lock.Unlock(context.WithoutCancel(ctx)); err != nil {
					logger.Log.Warn("Failed to release relevance lock", zap.Error(err))
				}
			}()
		}
	}

	ctx, span := otel.Tracer("relevance").Start(ctx, "relevance.Recompute")
	defer span.End()
	span.SetAttributes(attribute.Int("relevance.window_days", windowDays))

	if s.cfg.MaxRunDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.MaxRunDuration)
		defer cancel()
	}

	m := metrics.Get()
	started := time.Now()
	now := s.now()

	res, err := s.recompute(ctx, now, windowDays)
	if err != nil {
		m.RelevanceRunsTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.Duration = time.Since(started)

	status := "ok"
	if res.Skipped > 0 {
		status = "partial"
	} else {
		m.RelevanceLastSuccessTS.Set(float64(now.Unix()))
	}
	m.RelevanceRunsTotal.WithLabelValues(status).Inc()
	m.RelevancePostsUpdated.Add(float64(res.Updated))
	m.RelevancePostsFailed.Add(float64(res.Failed))
	m.RelevanceRunDuration.Observe(res.Duration.Seconds())

	span.SetAttributes(
		attribute.Int("relevance.considered", res.Considered),
		attribute.Int("relevance.updated", res.Updated),
		attribute.Int("relevance.failed", res.Failed),
	)

	logger.Log.Info("Relevance recompute finished",
		zap.Int("window_days", windowDays),
		zap.Int("considered", res.Considered),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
		logger.WithDuration(res.Duration),
	)

	return res, nil
}

func (s *Scheduler) recompute(ctx context.Context, now time.Time, windowDays int) (*Result, error) {
	since := now.AddDate(0, 0, -windowDays)

	all, err := s.posts.PostsCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load windowed posts: %w", err)
	}

	posts := lo.Filter(all, func(p models.Post, _ int) bool {
		return !p.DeletedAt.Valid && !p.CreatedAt.Before(since)
	})

	// Aggregates cover every post, not just the window
	shares, err := s.posts.ShareCounts(ctx)
	if err != nil {
		logger.Log.Warn("Share counts unavailable, scoring without shares", zap.Error(err))
		shares = map[string]int64{}
	}
	saves, err := s.posts.SaveCounts(ctx)
	if err != nil {
		logger.Log.Warn("Save counts unavailable, scoring without saves", zap.Error(err))
		saves = map[string]int64{}
	}

	authorIDs := lo.Uniq(lo.Map(posts, func(p models.Post, _ int) string { return p.AuthorID }))
	followers, err := s.followers.FollowerCounts(ctx, authorIDs...)
	if err != nil {
		logger.Log.Warn("Follower counts unavailable, skipping reach normalization", zap.Error(err))
		followers = map[string]int64{}
	}

	var updated, failed, skipped atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Workers)

	for i := range posts {
		if ctx.Err() != nil {
			skipped.Add(int64(len(posts) - i))
			break
		}

		post := &posts[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				skipped.Add(1)
				return nil
			}

			in := ranking.NewInput(post, shares[post.ID], saves[post.ID])
			score, err := ranking.Baseline(in, ranking.AuthorSummary{FollowerCount: followers[post.AuthorID]}, now)
			if err != nil {
				logger.Log.Warn("Skipping unscorable post", logger.WithPostID(post.ID), zap.Error(err))
				skipped.Add(1)
				return nil
			}

			if err := s.posts.UpdateRelevance(ctx, post.ID, score, now); err != nil {
				logger.Log.Warn("Failed to store relevance score", logger.WithPostID(post.ID), zap.Error(err))
				failed.Add(1)
				return nil
			}

			updated.Add(1)
			return nil
		})
	}
	g.Wait()

	if ctx.Err() != nil && skipped.Load() > 0 {
		logger.Log.Warn("Relevance recompute cut short",
			zap.Int64("skipped", skipped.Load()),
			zap.Error(ctx.Err()),
		)
	}

	return &Result{
		Considered: len(posts),
		Updated:    int(updated.Load()),
		Failed:     int(failed.Load()),
		Skipped:    int(skipped.Load()),
	}, nil
}

// cronLogger routes cron's own logging to zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
