package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/feed"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/util"
)

// GetFeed serves one page of the caller's feed.
// GET /api/v1/feed?type=&limit=&cursor=&content_types=&topics=&pet_ids=&start=&end=&high_quality=
func (h *Handlers) GetFeed(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := feed.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			util.RespondValidationError(c, "limit", "limit must be an integer")
			return
		}
		limit = n
	}

	start, err := util.ParseOptionalTime(c.Query("start"))
	if err != nil {
		util.RespondValidationError(c, "start", "start must be an RFC 3339 timestamp")
		return
	}
	end, err := util.ParseOptionalTime(c.Query("end"))
	if err != nil {
		util.RespondValidationError(c, "end", "end must be an RFC 3339 timestamp")
		return
	}

	q := feed.Query{
		Type:   feed.Type(c.DefaultQuery("type", string(feed.TypeHome))),
		Limit:  limit,
		Cursor: c.Query("cursor"),
		Filters: feed.Filters{
			ContentTypes:    util.ParseCSV(c.Query("content_types")),
			Topics:          util.ParseCSV(c.Query("topics")),
			PetIDs:          util.ParseCSV(c.Query("pet_ids")),
			DateRange:       feed.DateRange{Start: start, End: end},
			HighQualityOnly: util.ParseBool(c.Query("high_quality")),
		},
	}

	page, err := h.feeds.GetFeed(c.Request.Context(), viewerID, q)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
