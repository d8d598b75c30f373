package handlers

import (
	"context"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/feed"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/relevance"
)

// FeedService assembles feeds
type FeedService interface {
	GetFeed(ctx context.Context, viewerID string, q feed.Query) (*feed.Page, error)
}

// Recomputer runs an on-demand relevance recompute
type Recomputer interface {
	Recompute(ctx context.Context, windowDays int) (*relevance.Result, error)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	feeds      FeedService
	recomputer Recomputer
	checks     map[string]HealthCheck
}

// NewHandlers creates a new handlers instance
func NewHandlers(feeds FeedService, recomputer Recomputer) *Handlers {
	return &Handlers{
		feeds:      feeds,
		recomputer: recomputer,
		checks:     map[string]HealthCheck{},
	}
}

// AddHealthCheck registers a dependency reported by /health
func (h *Handlers) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}
