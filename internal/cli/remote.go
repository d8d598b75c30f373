package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	apperrors "github.com/goleaf/petssocnnetworkmobile-sub017/internal/errors"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/feed"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/relevance"
	"go.uber.org/zap"
)

// remoteClient drives a running petfeed server over its HTTP API
type remoteClient struct {
	http *resty.Client
}

func newRemoteClient(baseURL, token string) *remoteClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(5*time.Minute).
		SetHeader("User-Agent", "petfeed-cli/"+Version)
	if token != "" {
		c.SetAuthToken(token)
	}

	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Log.Debug("HTTP request", zap.String("method", req.Method), zap.String("url", req.URL))
		return nil
	})
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Log.Debug("HTTP response", zap.Int("status", resp.StatusCode()), zap.Duration("took", resp.Time()))
		return nil
	})

	return &remoteClient{http: c}
}

// Feed fetches one page through GET /api/v1/feed; the viewer is the token's subject
func (c *remoteClient) Feed(ctx context.Context, q feed.Query) (*feed.Page, error) {
	params := map[string]string{
		"type":  string(q.Type),
		"limit": strconv.Itoa(q.Limit),
	}
	if q.Cursor != "" {
		params["cursor"] = q.Cursor
	}
	if len(q.Filters.ContentTypes) > 0 {
		params["content_types"] = strings.Join(q.Filters.ContentTypes, ",")
	}
	if len(q.Filters.Topics) > 0 {
		params["topics"] = strings.Join(q.Filters.Topics, ",")
	}
	if len(q.Filters.PetIDs) > 0 {
		params["pet_ids"] = strings.Join(q.Filters.PetIDs, ",")
	}
	if q.Filters.HighQualityOnly {
		params["high_quality"] = "true"
	}

	var page feed.Page
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&page).
		SetError(&apperrors.APIError{}).
		Get("/api/v1/feed")
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, responseError("fetch feed", resp)
	}
	return &page, nil
}

// Recompute triggers POST /api/v1/admin/relevance/recompute and waits for the run
func (c *remoteClient) Recompute(ctx context.Context, windowDays int) (*relevance.Result, error) {
	var body struct {
		Considered int   `json:"considered"`
		Updated    int   `json:"updated"`
		Failed     int   `json:"failed"`
		Skipped    int   `json:"skipped"`
		DurationMs int64 `json:"duration_ms"`
	}

	req := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&apperrors.APIError{})
	if windowDays > 0 {
		req.SetQueryParam("window_days", strconv.Itoa(windowDays))
	}

	resp, err := req.Post("/api/v1/admin/relevance/recompute")
	if err != nil {
		return nil, fmt.Errorf("recompute: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, responseError("recompute", resp)
	}

	return &relevance.Result{
		Considered: body.Considered,
		Updated:    body.Updated,
		Failed:     body.Failed,
		Skipped:    body.Skipped,
		Duration:   time.Duration(body.DurationMs) * time.Millisecond,
	}, nil
}

// responseError surfaces the server's APIError body when there is one
func responseError(op string, resp *resty.Response) error {
	if apiErr, ok := resp.Error().(*apperrors.APIError); ok && apiErr.Code != "" {
		apiErr.Status = resp.StatusCode()
		return fmt.Errorf("%s: %w", op, apiErr)
	}
	return fmt.Errorf("%s: %s", op, resp.Status())
}
