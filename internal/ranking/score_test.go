package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRecencyMultiplier(t *testing.T) {
	testCases := []struct {
		ageHours float64
		expected float64
	}{
		{0, 1.0},
		{0.99, 1.0},
		{1, 0.9},
		{2.5, 0.9},
		{3, 0.7},
		{6, 0.5},
		{11.9, 0.5},
		{12, 0.3},
		{24, 0.1},
		{47.9, 0.1},
		{48, 0.05},
		{24 * 30, 0.05},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, RecencyMultiplier(tc.ageHours), "age %.2fh", tc.ageHours)
	}
}

func TestRawEngagement(t *testing.T) {
	assert.Equal(t, 0.0, RawEngagement(Engagement{}))
	assert.InDelta(t, 1.0+3.0+2.5+1.5, RawEngagement(Engagement{1, 1, 1, 1}), 1e-9)
	assert.InDelta(t, 10*1.0+2*3.0, RawEngagement(Engagement{Reactions: 10, Comments: 2}), 1e-9)

	// Invalid counters are zero
	assert.InDelta(t, 3.0, RawEngagement(Engagement{Reactions: -5, Comments: 1, Shares: -1}), 1e-9)
}

func TestNormalizeForReach(t *testing.T) {
	assert.Equal(t, 100.0, NormalizeForReach(100, 0))
	assert.Equal(t, 100.0, NormalizeForReach(100, 1000))
	assert.InDelta(t, 100.0/4, NormalizeForReach(100, 10000), 1e-9)

	// Never increases as followers grow past the threshold
	prev := NormalizeForReach(100, 1001)
	for followers := int64(1500); followers < 10_000_000; followers *= 3 {
		cur := NormalizeForReach(100, followers)
		assert.LessOrEqual(t, cur, prev, "followers=%d", followers)
		prev = cur
	}
}

func TestScoreNeverNegative(t *testing.T) {
	ages := []time.Duration{-time.Hour, 0, 30 * time.Minute, 5 * time.Hour, 72 * time.Hour}
	engagements := []Engagement{{}, {Reactions: 3}, {-10, -10, -10, -10}, {1000, 200, 50, 70}}
	followers := []int64{-1, 0, 999, 1001, 5_000_000}
	multipliers := []Multipliers{
		NeutralMultipliers(),
		{Affinity: -3, ContentType: -1, Topic: -2, Proximity: -1},
		{Affinity: math.NaN(), ContentType: math.Inf(1), Topic: math.Inf(-1), Proximity: math.NaN()},
		{Affinity: 2, ContentType: 1, Topic: 1.5, Proximity: 1.2},
	}

	for _, age := range ages {
		for _, e := range engagements {
			for _, f := range followers {
				for _, m := range multipliers {
					in := Input{PostID: "p", AuthorID: "a", CreatedAt: testNow.Add(-age), Engagement: e}
					s, err := Score(in, AuthorSummary{FollowerCount: f}, testNow, m)
					require.NoError(t, err)
					assert.GreaterOrEqual(t, s, 0.0)
					assert.False(t, math.IsNaN(s))
				}
			}
		}
	}
}

func TestScoreRecencyIsMonotonic(t *testing.T) {
	e := Engagement{Reactions: 4, Comments: 2, Shares: 1, Saves: 3}
	prev := math.Inf(1)
	for age := time.Duration(0); age < 100*time.Hour; age += 20 * time.Minute {
		in := Input{PostID: "p", AuthorID: "a", CreatedAt: testNow.Add(-age), Engagement: e}
		s, err := Baseline(in, AuthorSummary{FollowerCount: 50}, testNow)
		require.NoError(t, err)
		assert.LessOrEqual(t, s, prev, "age=%s", age)
		prev = s
	}
}

func TestScoreFreshCommentBeatsStaleReactions(t *testing.T) {
	author := AuthorSummary{FollowerCount: 50}
	a := Input{PostID: "a", AuthorID: "u1", CreatedAt: testNow.Add(-30 * time.Minute), Engagement: Engagement{Comments: 1}}
	b := Input{PostID: "b", AuthorID: "u2", CreatedAt: testNow.Add(-30 * time.Hour), Engagement: Engagement{Reactions: 10}}

	scoreA, err := Baseline(a, author, testNow)
	require.NoError(t, err)
	scoreB, err := Baseline(b, author, testNow)
	require.NoError(t, err)

	assert.InDelta(t, 3.0*NeutralContentType, scoreA, 1e-9)
	assert.InDelta(t, 1.0*NeutralContentType, scoreB, 1e-9)
	assert.Greater(t, scoreA, scoreB)
}

func TestScoreMissingTimestamp(t *testing.T) {
	_, err := Score(Input{PostID: "p", Engagement: Engagement{Comments: 5}}, AuthorSummary{}, testNow, NeutralMultipliers())
	assert.ErrorIs(t, err, ErrMissingTimestamp)
}

func TestInvalidMultipliersAreNeutral(t *testing.T) {
	in := Input{PostID: "p", AuthorID: "a", CreatedAt: testNow, Engagement: Engagement{Comments: 2}}

	baseline, err := Baseline(in, AuthorSummary{}, testNow)
	require.NoError(t, err)

	bad := Multipliers{Affinity: math.NaN(), ContentType: -0.1, Topic: math.Inf(1), Proximity: -5}
	s, err := Score(in, AuthorSummary{}, testNow, bad)
	require.NoError(t, err)
	assert.Equal(t, baseline, s)
}

func TestComputeSignals(t *testing.T) {
	in := Input{PostID: "p", AuthorID: "a", CreatedAt: testNow.Add(-4 * time.Hour), Engagement: Engagement{Reactions: 10, Comments: 10}}
	m := Multipliers{Affinity: 2, ContentType: 1, Topic: 1.5, Proximity: 1}

	s, err := ComputeSignals(in, AuthorSummary{FollowerCount: 100_000}, testNow, m)
	require.NoError(t, err)

	assert.InDelta(t, 4.0, s.AgeHours, 1e-9)
	assert.Equal(t, 0.7, s.Recency)
	assert.InDelta(t, 40.0, s.RawEngagement, 1e-9)
	assert.InDelta(t, 8.0, s.NormalizedEngagement, 1e-9)
	assert.InDelta(t, 5.6, s.Base, 1e-9)
	assert.InDelta(t, 5.6*2*1.5, s.Final, 1e-9)
	assert.Equal(t, m, s.Multipliers)
}

func TestFutureTimestampCountsAsFresh(t *testing.T) {
	in := Input{PostID: "p", AuthorID: "a", CreatedAt: testNow.Add(2 * time.Hour), Engagement: Engagement{Reactions: 1}}
	s, err := ComputeSignals(in, AuthorSummary{}, testNow, NeutralMultipliers())
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.AgeHours)
	assert.Equal(t, 1.0, s.Recency)
}
