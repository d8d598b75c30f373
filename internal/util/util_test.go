package util

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseCSV(t *testing.T) {
	assert.Nil(t, ParseCSV(""))
	assert.Nil(t, ParseCSV("   "))
	assert.Equal(t, []string{"photo", "video"}, ParseCSV("photo, video,,photo "))
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("true"))
	assert.True(t, ParseBool("1"))
	assert.False(t, ParseBool("yes"))
	assert.False(t, ParseBool(""))
}

func TestParseOptionalTime(t *testing.T) {
	got, err := ParseOptionalTime("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptionalTime("2025-05-01T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)))

	_, err = ParseOptionalTime("yesterday")
	assert.Error(t, err)
}

func TestRespondError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", errors.ValidationError("limit", "bad"), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"wrapped api error", fmt.Errorf("feed: %w", errors.Conflict("busy")), http.StatusConflict, "CONFLICT"},
		{"plain error", fmt.Errorf("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Set("user_id", "u1")
	id, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}
