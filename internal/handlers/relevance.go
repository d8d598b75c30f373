package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/goleaf/petssocnnetworkmobile-sub017/internal/errors"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/relevance"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/util"
	"go.uber.org/zap"
)

// RecomputeRelevance triggers a relevance recompute and waits for it to finish.
// POST /api/v1/admin/relevance/recompute?window_days=
func (h *Handlers) RecomputeRelevance(c *gin.Context) {
	windowDays := 0
	if raw := c.Query("window_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			util.RespondValidationError(c, "window_days", "window_days must be a positive integer")
			return
		}
		windowDays = n
	}

	logger.Log.Info("Manual relevance recompute requested",
		logger.WithUserID(c.GetString("user_id")),
		zap.Int("window_days", windowDays),
	)

	result, err := h.recomputer.Recompute(c.Request.Context(), windowDays)
	if err != nil {
		if errors.Is(err, relevance.ErrRunInProgress) {
			util.RespondWithAPIError(c, apperrors.Conflict("relevance recompute already running").
				WithDetails("retry after the current run finishes"))
			return
		}
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"considered":  result.Considered,
		"updated":     result.Updated,
		"failed":      result.Failed,
		"skipped":     result.Skipped,
		"duration_ms": result.Duration.Milliseconds(),
	})
}
