package analytics

import (
	"sort"
	"time"

	"github.com/dcfoodblog/backend/internal/catalog"
)

// DailyViews is the number of view activities on one UTC day
type DailyViews struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// Count is a named tally
type Count struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// HourlyVisitors is the activity count for one hour of the day
type HourlyVisitors struct {
	Hour     int `json:"hour"`
	Visitors int `json:"visitors"`
}

const (
	SegmentNew       = "newCustomers"
	SegmentReturning = "returning"
	SegmentFrequent  = "frequent"
	SegmentInactive  = "inactive"
)

// SegmentWindow is how far back a visit still counts as recent
const SegmentWindow = 30 * 24 * time.Hour

// frequentVisits is the recent-visit count above which a customer is frequent
const frequentVisits = 3

// ViewTrends counts view activities per day, oldest first
func ViewTrends(activities []catalog.Activity) []DailyViews {
	byDay := make(map[string]int)
	for _, a := range activities {
		if a.Type != catalog.ActivityView {
			continue
		}
		byDay[a.Timestamp.UTC().Format(time.DateOnly)]++
	}

	out := make([]DailyViews, 0, len(byDay))
	for date, views := range byDay {
		out = append(out, DailyViews{Date: date, Views: views})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Engagement counts activities per type, sorted by type
func Engagement(activities []catalog.Activity) []Count {
	byType := make(map[string]int)
	for _, a := range activities {
		byType[string(a.Type)]++
	}
	return sortedCounts(byType)
}

// PeakHours buckets every activity by hour of day in loc (UTC when nil)
func PeakHours(activities []catalog.Activity, loc *time.Location) []HourlyVisitors {
	if loc == nil {
		loc = time.UTC
	}
	var hours [24]int
	for _, a := range activities {
		hours[a.Timestamp.In(loc).Hour()]++
	}

	out := make([]HourlyVisitors, 24)
	for h := range hours {
		out[h] = HourlyVisitors{Hour: h, Visitors: hours[h]}
	}
	return out
}

// CustomerSegments classifies users by their visits to one restaurant:
// no visits at all, no recent visits, more than three recent visits, or otherwise returning.
func CustomerSegments(activities []catalog.Activity, restaurantID string, userIDs []string, now time.Time) []Count {
	since := now.Add(-SegmentWindow)
	total := make(map[string]int)
	recent := make(map[string]int)
	for _, a := range activities {
		if a.Type != catalog.ActivityVisit || a.TargetID != restaurantID {
			continue
		}
		total[a.UserID]++
		if !a.Timestamp.Before(since) {
			recent[a.UserID]++
		}
	}

	segments := map[string]int{
		SegmentNew:       0,
		SegmentReturning: 0,
		SegmentFrequent:  0,
		SegmentInactive:  0,
	}
	for _, uid := range userIDs {
		switch {
		case total[uid] == 0:
			segments[SegmentNew]++
		case recent[uid] == 0:
			segments[SegmentInactive]++
		case recent[uid] > frequentVisits:
			segments[SegmentFrequent]++
		default:
			segments[SegmentReturning]++
		}
	}

	return []Count{
		{Name: SegmentNew, Value: segments[SegmentNew]},
		{Name: SegmentReturning, Value: segments[SegmentReturning]},
		{Name: SegmentFrequent, Value: segments[SegmentFrequent]},
		{Name: SegmentInactive, Value: segments[SegmentInactive]},
	}
}

// ForTarget keeps the activities aimed at one target
func ForTarget(activities []catalog.Activity, targetID string) []catalog.Activity {
	var out []catalog.Activity
	for _, a := range activities {
		if a.TargetID == targetID {
			out = append(out, a)
		}
	}
	return out
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, v := range m {
		out = append(out, Count{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
