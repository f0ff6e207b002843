// Package recommend ranks restaurants for a user from preference matches,
// the user's own rating history, community ratings and recent views.
//
// Every signal is additive and computed per restaurant. Two scoring rules
// are fixed here: favourite cuisines add a weight per matched cuisine, and
// rating history contributes a flat bonus when the user's mean rating of
// similar restaurants is above a threshold.
package recommend

import (
	"fmt"
	"sort"

	"github.com/dcfoodblog/backend/internal/catalog"
)

// Policy holds the weights and thresholds of every scoring signal
type Policy struct {
	CuisineMatchWeight     float64
	LocationBonus          float64
	SimilarRatingThreshold float64
	SimilarRatingBonus     float64
	RecentViewPenalty      float64
	CommunityThreshold     float64
	CommunityBonus         float64
	BookmarkBonus          float64
	// ExplainLimit caps explained results when Options.Limit is unset
	ExplainLimit int
}

func DefaultPolicy() Policy {
	return Policy{
		CuisineMatchWeight:     2,
		LocationBonus:          3,
		SimilarRatingThreshold: 80,
		SimilarRatingBonus:     2,
		RecentViewPenalty:      1,
		CommunityThreshold:     85,
		CommunityBonus:         1,
		BookmarkBonus:          1,
		ExplainLimit:           10,
	}
}

const (
	ReasonLocation  = "In your preferred location"
	ReasonSimilar   = "Similar to restaurants you rated highly"
	ReasonCommunity = "Highly rated by the community"
	ReasonBookmark  = "You bookmarked a review of this restaurant"
)

// CuisineReason is the match reason for n favourite cuisines
func CuisineReason(n int) string {
	return fmt.Sprintf("Matches %d of your favorite cuisines", n)
}

// Options tunes one recommendation run
type Options struct {
	// Explain attaches match reasons and truncates to Limit (or Policy.ExplainLimit)
	Explain     bool
	RecentViews []string
	// Limit truncates the ranked list when > 0
	Limit int
}

// Score is the outcome of scoring one restaurant
type Score struct {
	RestaurantID string
	Score        float64
	MatchReasons []string
}

// Recommendation is a ranked restaurant
type Recommendation struct {
	Restaurant   catalog.Restaurant `json:"restaurant"`
	Score        float64            `json:"score"`
	MatchReasons []string           `json:"matchReasons,omitempty"`
}

type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Recommend scores every restaurant and returns them by descending score.
// Ties keep catalog order. A restaurant without an id fails the whole call.
func (e *Engine) Recommend(restaurants []catalog.Restaurant, profile *catalog.UserProfile, userReviews []catalog.Review, opts Options) ([]Recommendation, error) {
	scorer := e.NewScorer(restaurants, profile, userReviews, opts.RecentViews)

	recs := make([]Recommendation, 0, len(restaurants))
	for i := range restaurants {
		s, err := scorer.Score(&restaurants[i])
		if err != nil {
			return nil, fmt.Errorf("score restaurant at %d: %w", i, err)
		}
		rec := Recommendation{Restaurant: restaurants[i], Score: s.Score}
		if opts.Explain {
			rec.MatchReasons = s.MatchReasons
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	limit := opts.Limit
	if opts.Explain && limit <= 0 {
		limit = e.policy.ExplainLimit
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Scorer scores restaurants against one user's signals
type Scorer struct {
	policy      Policy
	catalog     map[string]*catalog.Restaurant
	favorites   map[string]struct{}
	preferred   map[string]struct{}
	bookmarks   map[string]struct{}
	recent      map[string]struct{}
	userReviews []catalog.Review
}

// NewScorer prepares the lookups shared by every restaurant in a run.
// A nil profile behaves like an empty one.
func (e *Engine) NewScorer(restaurants []catalog.Restaurant, profile *catalog.UserProfile, userReviews []catalog.Review, recentViews []string) *Scorer {
	if profile == nil {
		profile = &catalog.UserProfile{}
	}

	byID := make(map[string]*catalog.Restaurant, len(restaurants))
	for i := range restaurants {
		if _, seen := byID[restaurants[i].ID]; !seen {
			byID[restaurants[i].ID] = &restaurants[i]
		}
	}

	return &Scorer{
		policy:      e.policy,
		catalog:     byID,
		favorites:   toSet(profile.FavoriteCuisines),
		preferred:   toSet(profile.PreferredLocations),
		bookmarks:   toSet(profile.Bookmarks),
		recent:      toSet(recentViews),
		userReviews: userReviews,
	}
}

// Score computes the additive score of one restaurant
func (s *Scorer) Score(r *catalog.Restaurant) (Score, error) {
	if err := catalog.ValidateRestaurantID(r); err != nil {
		return Score{}, err
	}

	out := Score{RestaurantID: r.ID}
	add := func(points float64, reason string) {
		out.Score += points
		if reason != "" {
			out.MatchReasons = append(out.MatchReasons, reason)
		}
	}

	matches := 0
	for _, c := range r.CuisineTypes {
		if _, ok := s.favorites[c]; ok {
			matches++
		}
	}
	if matches > 0 {
		add(float64(matches)*s.policy.CuisineMatchWeight, CuisineReason(matches))
	}

	if _, ok := s.preferred[r.Location.City]; ok {
		add(s.policy.LocationBonus, ReasonLocation)
	}

	if mean, ok := s.similarMean(r); ok && mean > s.policy.SimilarRatingThreshold {
		add(s.policy.SimilarRatingBonus, ReasonSimilar)
	}

	if _, ok := s.recent[r.ID]; ok {
		add(-s.policy.RecentViewPenalty, "")
	}

	if r.AverageRating != nil && *r.AverageRating > s.policy.CommunityThreshold {
		add(s.policy.CommunityBonus, ReasonCommunity)
	}

	if s.bookmarkedReviewOf(r.ID) {
		add(s.policy.BookmarkBonus, ReasonBookmark)
	}

	return out, nil
}

// similarMean averages the user's ratings of other catalog restaurants that
// share a cuisine with r. Undetermined ratings count as 0.
func (s *Scorer) similarMean(r *catalog.Restaurant) (float64, bool) {
	var sum float64
	n := 0
	for _, review := range s.userReviews {
		if review.RestaurantID == r.ID {
			continue
		}
		rated, ok := s.catalog[review.RestaurantID]
		if !ok || !sharesCuisine(rated.CuisineTypes, r.CuisineTypes) {
			continue
		}
		sum += review.Rating.ScoreOrZero()
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (s *Scorer) bookmarkedReviewOf(restaurantID string) bool {
	if len(s.bookmarks) == 0 {
		return false
	}
	for _, review := range s.userReviews {
		if review.RestaurantID != restaurantID {
			continue
		}
		if _, ok := s.bookmarks[review.ID]; ok {
			return true
		}
	}
	return false
}

func sharesCuisine(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
