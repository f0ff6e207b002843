package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcfoodblog/backend/internal/analytics"
	"github.com/dcfoodblog/backend/internal/catalog"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestViewTrends(t *testing.T) {
	activities := []catalog.Activity{
		{Type: catalog.ActivityView, Timestamp: at("2026-03-02T10:00:00Z")},
		{Type: catalog.ActivityView, Timestamp: at("2026-03-01T23:59:00Z")},
		{Type: catalog.ActivityLike, Timestamp: at("2026-03-01T12:00:00Z")},
		{Type: catalog.ActivityView, Timestamp: at("2026-03-02T18:00:00Z")},
	}

	got := analytics.ViewTrends(activities)
	assert.Equal(t, []analytics.DailyViews{
		{Date: "2026-03-01", Views: 1},
		{Date: "2026-03-02", Views: 2},
	}, got)
}

func TestEngagement(t *testing.T) {
	activities := []catalog.Activity{
		{Type: catalog.ActivityView},
		{Type: catalog.ActivityShare},
		{Type: catalog.ActivityView},
		{Type: catalog.ActivityComment},
	}
	assert.Equal(t, []analytics.Count{
		{Name: "comment", Value: 1},
		{Name: "share", Value: 1},
		{Name: "view", Value: 2},
	}, analytics.Engagement(activities))
}

func TestPeakHours(t *testing.T) {
	activities := []catalog.Activity{
		{Timestamp: at("2026-03-01T12:15:00Z")},
		{Timestamp: at("2026-03-02T12:45:00Z")},
		{Timestamp: at("2026-03-02T00:05:00Z")},
	}

	got := analytics.PeakHours(activities, nil)
	require.Len(t, got, 24)
	assert.Equal(t, 2, got[12].Visitors)
	assert.Equal(t, 1, got[0].Visitors)
	assert.Equal(t, 0, got[23].Visitors)

	eastern := time.FixedZone("EST", -5*60*60)
	shifted := analytics.PeakHours(activities, eastern)
	assert.Equal(t, 2, shifted[7].Visitors)
	assert.Equal(t, 1, shifted[19].Visitors)
}

func TestCustomerSegments(t *testing.T) {
	now := at("2026-03-31T00:00:00Z")
	recent := now.Add(-24 * time.Hour)
	old := now.Add(-60 * 24 * time.Hour)

	visit := func(user string, ts time.Time) catalog.Activity {
		return catalog.Activity{Type: catalog.ActivityVisit, UserID: user, TargetID: "r1", Timestamp: ts}
	}
	activities := []catalog.Activity{
		visit("returning", recent),
		visit("inactive", old),
		visit("frequent", recent), visit("frequent", recent), visit("frequent", recent), visit("frequent", recent),
		{Type: catalog.ActivityVisit, UserID: "elsewhere", TargetID: "r2", Timestamp: recent},
	}

	got := analytics.CustomerSegments(activities, "r1", []string{"returning", "inactive", "frequent", "elsewhere", "new"}, now)
	assert.Equal(t, []analytics.Count{
		{Name: analytics.SegmentNew, Value: 2},
		{Name: analytics.SegmentReturning, Value: 1},
		{Name: analytics.SegmentFrequent, Value: 1},
		{Name: analytics.SegmentInactive, Value: 1},
	}, got)
}

func TestSummarizeReviews(t *testing.T) {
	reviews := []catalog.Review{
		{ID: "3", Rating: catalog.NumericRating(100), CreatedAt: at("2026-03-03T00:00:00Z"), Content: "great food and friendly staff"},
		{ID: "1", Rating: catalog.NumericRating(85), CreatedAt: at("2026-03-01T00:00:00Z"), Content: "<p>Great food, will return</p>"},
		{ID: "2", Rating: catalog.Undetermined(), CreatedAt: at("2026-03-02T00:00:00Z"), Content: "great food soon"},
		{ID: "4", Rating: catalog.NumericRating(82), CreatedAt: at("2026-03-04T00:00:00Z"), Content: "will return"},
	}

	s := analytics.SummarizeReviews(reviews, 2)
	assert.Equal(t, 4, s.TotalReviews)
	assert.Equal(t, 1, s.PendingReviews)
	require.NotNil(t, s.AverageRating)
	assert.InDelta(t, 89.0, *s.AverageRating, 0.0001)
	assert.Equal(t, map[int]int{80: 2, 100: 1}, s.RatingDistribution)
	assert.Equal(t, []analytics.RatingPoint{
		{Date: "2026-03-01", Rating: 85},
		{Date: "2026-03-03", Rating: 100},
		{Date: "2026-03-04", Rating: 82},
	}, s.RatingTrend)
	assert.Equal(t, []analytics.PhraseCount{
		{Phrase: "great food", Count: 3},
		{Phrase: "will return", Count: 2},
	}, s.CommonPhrases)
}

func TestAverageRatingNeverCoercesPending(t *testing.T) {
	assert.Nil(t, analytics.AverageRating([]catalog.Review{{Rating: catalog.Undetermined()}}))
	assert.Nil(t, analytics.AverageRating(nil))
}

func TestCompare(t *testing.T) {
	restaurants := []catalog.Restaurant{
		{ID: "a", Name: "Alpha", Features: []string{"Delivery"}},
		{ID: "b", Name: "Beta"},
	}
	reviews := []catalog.Review{
		{RestaurantID: "a", Rating: catalog.NumericRating(90)},
		{RestaurantID: "a", Rating: catalog.NumericRating(70)},
		{RestaurantID: "b", Rating: catalog.Undetermined()},
	}

	got := analytics.Compare(restaurants, reviews)
	require.Len(t, got, 2)
	assert.Equal(t, 80.0, *got[0].AverageRating)
	assert.Equal(t, 2, got[0].TotalReviews)
	assert.Equal(t, []string{"Delivery"}, got[0].Features)
	assert.Nil(t, got[1].AverageRating)
	assert.Equal(t, 1, got[1].TotalReviews)
	assert.Empty(t, got[1].Features)
}
