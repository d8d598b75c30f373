package feed

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Author diversity: an author already shown this many times within the
// previous window items has further posts penalized.
const (
	diversityWindow       = 10
	diversityMaxPerAuthor = 3
	diversityPenalty      = 0.5
)

type ranked struct {
	post  *models.Post
	score float64
}

// engagementSnapshot holds the aggregate counters loaded once per request
type engagementSnapshot struct {
	shares    map[string]int64
	saves     map[string]int64
	followers map[string]int64
}

func (a *Assembler) loadEngagement(ctx context.Context, posts []models.Post) engagementSnapshot {
	snap := engagementSnapshot{
		shares:    map[string]int64{},
		saves:     map[string]int64{},
		followers: map[string]int64{},
	}
	if len(posts) == 0 {
		return snap
	}

	postIDs := lo.Map(posts, func(p models.Post, _ int) string { return p.ID })
	authorIDs := lo.Uniq(lo.Map(posts, func(p models.Post, _ int) string { return p.AuthorID }))

	if shares, err := a.posts.ShareCounts(ctx, postIDs...); err != nil {
		logWarn("Share counts unavailable for feed", err)
	} else {
		snap.shares = shares
	}
	if saves, err := a.posts.SaveCounts(ctx, postIDs...); err != nil {
		logWarn("Save counts unavailable for feed", err)
	} else {
		snap.saves = saves
	}
	if followers, err := a.users.FollowerCounts(ctx, authorIDs...); err != nil {
		logWarn("Follower counts unavailable for feed", err)
	} else {
		snap.followers = followers
	}
	return snap
}

// rank scores, filters by quality, diversifies and sorts the candidates
func (a *Assembler) rank(ctx context.Context, t Type, viewer *ranking.ViewerContext, pool *candidatePool, f Filters, now time.Time) []ranked {
	snap := a.loadEngagement(ctx, pool.posts)

	items := make([]ranked, 0, len(pool.posts))
	for i := range pool.posts {
		p := &pool.posts[i]
		in := ranking.NewInput(p, snap.shares[p.ID], snap.saves[p.ID])
		author := ranking.AuthorSummary{FollowerCount: snap.followers[p.AuthorID]}

		baseline, err := a.baseline(p, in, author, now)
		if err != nil {
			if !errors.Is(err, ranking.ErrMissingTimestamp) {
				logger.Log.Warn("Skipping unscorable post", logger.WithPostID(p.ID), zap.Error(err))
			}
			continue
		}
		if f.HighQualityOnly && baseline < a.cfg.HighQualityMinScore {
			continue
		}

		place := pool.placeOf(p)

		var score float64
		switch {
		case t.Personalized():
			score, err = ranking.Score(in, author, now, viewer.Multipliers(in, place))
			if err != nil {
				continue
			}
		case t == TypeLocal && viewer.Location != nil && place != nil:
			score = baseline * ranking.ProximityBonus(ranking.DistanceKm(*viewer.Location, *place))
		default:
			score = baseline
		}

		items = append(items, ranked{post: p, score: score})
	}

	sortRanked(items)
	if t.diversified() {
		applyDiversity(items)
		sortRanked(items)
	}
	return items
}

// baseline prefers the cached score and computes the neutral score when it is missing
func (a *Assembler) baseline(p *models.Post, in ranking.Input, author ranking.AuthorSummary, now time.Time) (float64, error) {
	if p.CreatedAt.IsZero() {
		return 0, ranking.ErrMissingTimestamp
	}
	if p.RelevanceScore != nil && *p.RelevanceScore >= 0 {
		return *p.RelevanceScore, nil
	}
	return ranking.Baseline(in, author, now)
}

func (pool *candidatePool) placeOf(p *models.Post) *ranking.Point {
	if p.PlaceID == nil {
		return nil
	}
	if pt, ok := pool.places[*p.PlaceID]; ok {
		return &pt
	}
	return nil
}

// sortRanked orders by score desc, then newest first, then id asc
func sortRanked(items []ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.post.ID < b.post.ID
	})
}

// applyDiversity walks a sorted list and halves the score of any post whose
// author already fills diversityMaxPerAuthor of the preceding diversityWindow slots.
func applyDiversity(items []ranked) {
	for i := range items {
		seen := 0
		for j := max(0, i-diversityWindow); j < i; j++ {
			if items[j].post.AuthorID == items[i].post.AuthorID {
				seen++
			}
		}
		if seen >= diversityMaxPerAuthor {
			items[i].score *= diversityPenalty
		}
	}
}

func logWarn(msg string, err error) {
	logger.Log.Warn(msg, zap.Error(err))
}
