package analytics

import (
	"container/heap"
	"sort"
	"time"

	"github.com/dcfoodblog/backend/internal/catalog"
	"github.com/dcfoodblog/backend/internal/search"
)

// RatingPoint is one determined rating on the day its review was created
type RatingPoint struct {
	Date   string  `json:"date"`
	Rating float64 `json:"rating"`
}

// PhraseCount is a two-word phrase and how often reviews use it
type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// ReviewSummary aggregates the reviews of one restaurant.
// Undetermined ratings count toward TotalReviews and PendingReviews only.
type ReviewSummary struct {
	AverageRating      *float64      `json:"averageRating"`
	TotalReviews       int           `json:"totalReviews"`
	PendingReviews     int           `json:"pendingReviews"`
	RatingDistribution map[int]int   `json:"ratingDistribution"`
	RatingTrend        []RatingPoint `json:"ratingTrend"`
	CommonPhrases      []PhraseCount `json:"commonPhrases"`
}

// SummarizeReviews computes rating statistics and the topPhrases most common phrases
func SummarizeReviews(reviews []catalog.Review, topPhrases int) ReviewSummary {
	summary := ReviewSummary{
		TotalReviews:       len(reviews),
		RatingDistribution: make(map[int]int),
		RatingTrend:        make([]RatingPoint, 0),
	}

	ordered := append([]catalog.Review(nil), reviews...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var sum float64
	rated := 0
	for _, r := range ordered {
		v, ok := r.Rating.Value()
		if !ok {
			summary.PendingReviews++
			continue
		}
		sum += v
		rated++
		summary.RatingDistribution[bucket(v)]++
		summary.RatingTrend = append(summary.RatingTrend, RatingPoint{
			Date:   r.CreatedAt.UTC().Format(time.DateOnly),
			Rating: v,
		})
	}
	if rated > 0 {
		avg := sum / float64(rated)
		summary.AverageRating = &avg
	}

	summary.CommonPhrases = CommonPhrases(reviews, topPhrases)
	return summary
}

// AverageRating is the mean of determined ratings, or nil when none exist
func AverageRating(reviews []catalog.Review) *float64 {
	return SummarizeReviews(reviews, 0).AverageRating
}

func bucket(v float64) int {
	return int(v/10) * 10
}

// CommonPhrases counts adjacent word pairs across review text and returns the k most frequent
func CommonPhrases(reviews []catalog.Review, k int) []PhraseCount {
	if k <= 0 {
		return []PhraseCount{}
	}

	counts := make(map[string]int)
	for _, r := range reviews {
		tokens := search.Tokenize(search.PlainText(r.Content))
		for i := 0; i+1 < len(tokens); i++ {
			counts[tokens[i]+" "+tokens[i+1]]++
		}
	}

	h := &phraseHeap{}
	for phrase, count := range counts {
		heap.Push(h, PhraseCount{Phrase: phrase, Count: count})
		if h.Len() > k {
			heap.Pop(h)
		}
	}

	out := make([]PhraseCount, h.Len())
	copy(out, *h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Phrase < out[j].Phrase
	})
	return out
}

// phraseHeap is a min-heap on count; among equal counts the later phrase sorts lower
type phraseHeap []PhraseCount

func (h phraseHeap) Len() int { return len(h) }
func (h phraseHeap) Less(i, j int) bool {
	if h[i].Count != h[j].Count {
		return h[i].Count < h[j].Count
	}
	return h[i].Phrase > h[j].Phrase
}
func (h phraseHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *phraseHeap) Push(x interface{}) { *h = append(*h, x.(PhraseCount)) }
func (h *phraseHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// Comparison is the side-by-side view of one restaurant
type Comparison struct {
	RestaurantID  string   `json:"restaurantId"`
	Name          string   `json:"name"`
	AverageRating *float64 `json:"averageRating"`
	TotalReviews  int      `json:"totalReviews"`
	Features      []string `json:"features"`
}

// Compare builds comparison rows for the given restaurants in order
func Compare(restaurants []catalog.Restaurant, reviews []catalog.Review) []Comparison {
	out := make([]Comparison, 0, len(restaurants))
	for _, r := range restaurants {
		own := catalog.ReviewsOf(reviews, r.ID)
		out = append(out, Comparison{
			RestaurantID:  r.ID,
			Name:          r.Name,
			AverageRating: AverageRating(own),
			TotalReviews:  len(own),
			Features:      append([]string{}, r.Features...),
		})
	}
	return out
}
