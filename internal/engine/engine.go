package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcfoodblog/backend/internal/analytics"
	"github.com/dcfoodblog/backend/internal/catalog"
	"github.com/dcfoodblog/backend/internal/claim"
	"github.com/dcfoodblog/backend/internal/config"
	"github.com/dcfoodblog/backend/internal/metrics"
	"github.com/dcfoodblog/backend/internal/notify"
	"github.com/dcfoodblog/backend/internal/provider"
	"github.com/dcfoodblog/backend/internal/recommend"
	"github.com/dcfoodblog/backend/internal/search"
	"github.com/dcfoodblog/backend/internal/storage"
	"github.com/dcfoodblog/backend/internal/throttle"
)

var (
	ErrNoPendingClaim  = errors.New("no pending claim for restaurant")
	ErrNoOwner         = errors.New("restaurant has no verified owner")
	ErrInvalidActivity = errors.New("invalid activity")
)

// RecentViewWindow is how far back a user's restaurant views lower its score
const RecentViewWindow = 7 * 24 * time.Hour

// draftContextReviews caps the review excerpts sent with a draft prompt
const draftContextReviews = 5

// draftExcerptRunes caps each excerpt, counted in runes so multi-byte text stays valid
const draftExcerptRunes = 200

// Engine orchestrates catalog reads, search, recommendations and claims
type Engine struct {
	Config      *config.Config
	Logger      *logrus.Entry
	Storage     storage.CatalogStorage
	Recommender *recommend.Engine
	LLM         provider.LLMProvider
	Mailer      notify.Mailer
	Throttle    *throttle.Limiter
	Now         func() time.Time

	mu        sync.Mutex
	claims    map[string]claim.Challenge
	owners    map[string]string
	startTime time.Time
}

// Status summarises the engine for health checks
type Status struct {
	Storage       string              `json:"storage"`
	LLM           string              `json:"llm"`
	Restaurants   int                 `json:"restaurants"`
	Reviews       int                 `json:"reviews"`
	PendingClaims int                 `json:"pendingClaims"`
	Throttle      throttle.Statistics `json:"throttle"`
	Uptime        string              `json:"uptime"`
}

// RestaurantReport is the owner/admin analytics view of one restaurant
type RestaurantReport struct {
	Restaurant catalog.Restaurant         `json:"restaurant"`
	Reviews    analytics.ReviewSummary    `json:"reviews"`
	Views      []analytics.DailyViews     `json:"viewTrends"`
	Engagement []analytics.Count          `json:"engagement"`
	PeakHours  []analytics.HourlyVisitors `json:"peakHours"`
	Segments   []analytics.Count          `json:"customerSegments"`
}

func NewEngine(cfg *config.Config, logger *logrus.Entry, store storage.CatalogStorage, mailer notify.Mailer) (*Engine, error) {
	if store == nil {
		return nil, errors.New("engine requires a catalog storage")
	}

	var llm provider.LLMProvider
	switch cfg.LLM.Provider {
	case "openai":
		llm = provider.NewOpenAIProvider(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.Timeout)
	default:
		llm = provider.NewOllamaProvider(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
	}

	if mailer == nil {
		mailer = notify.NewLogMailer(logger)
	}

	return &Engine{
		Config:      cfg,
		Logger:      logger.WithField("component", "engine"),
		Storage:     store,
		Recommender: recommend.NewEngine(PolicyFromConfig(cfg.Recommend)),
		LLM:         llm,
		Mailer:      mailer,
		Throttle:    throttle.NewLimiter(cfg.Throttle, logger.WithField("component", "throttle")),
		Now:         time.Now,
		claims:      make(map[string]claim.Challenge),
		owners:      make(map[string]string),
		startTime:   time.Now(),
	}, nil
}

// PolicyFromConfig maps configured weights onto a recommendation policy
func PolicyFromConfig(c config.RecommendConfig) recommend.Policy {
	return recommend.Policy{
		CuisineMatchWeight:     c.CuisineMatchWeight,
		LocationBonus:          c.LocationBonus,
		SimilarRatingThreshold: c.SimilarRatingThreshold,
		SimilarRatingBonus:     c.SimilarRatingBonus,
		RecentViewPenalty:      c.RecentViewPenalty,
		CommunityThreshold:     c.CommunityThreshold,
		CommunityBonus:         c.CommunityBonus,
		BookmarkBonus:          c.BookmarkBonus,
		ExplainLimit:           c.ExplainLimit,
	}
}

// Search indexes the current catalog and runs the query against it
func (e *Engine) Search(ctx context.Context, query string, filters search.Filters) ([]search.Document, error) {
	docs, err := e.documents(ctx)
	if err != nil {
		return nil, err
	}
	results := search.Search(docs, query, filters)
	metrics.RecordSearch(!filters.IsZero(), len(results))
	return results, nil
}

// documents builds the search corpus; records that fail validation are skipped
func (e *Engine) documents(ctx context.Context) ([]search.Document, error) {
	restaurants, err := e.Storage.Restaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load restaurants: %w", err)
	}
	reviews, err := e.Storage.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}

	items := make([]search.Item, 0, len(restaurants)+len(reviews))
	for _, r := range restaurants {
		items = append(items, search.RestaurantItem(r))
	}
	for _, r := range reviews {
		items = append(items, search.ReviewItem(r))
	}

	docs, rejected := search.IndexAll(items)
	for _, ie := range rejected {
		e.Logger.WithError(ie.Err).WithField("kind", ie.Kind).Warn("Skipping record that cannot be indexed")
		metrics.RecordRejected(string(ie.Kind))
	}
	return docs, nil
}

// Recommend ranks the catalog for uid. A user without a stored profile gets
// an empty one. When opts.RecentViews is nil it is filled from the user's
// view activity within RecentViewWindow.
func (e *Engine) Recommend(ctx context.Context, uid string, opts recommend.Options) (recs []recommend.Recommendation, err error) {
	start := time.Now()
	defer func() { metrics.RecordRecommendation(opts.Explain, time.Since(start), err) }()

	profile, err := e.Storage.Profile(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		profile, err = &catalog.UserProfile{UID: uid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	restaurants, err := e.scorableRestaurants(ctx)
	if err != nil {
		return nil, err
	}

	reviews, err := e.Storage.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	var own []catalog.Review
	for _, r := range reviews {
		if r.AuthorID == uid {
			own = append(own, r)
		}
	}

	if opts.RecentViews == nil {
		opts.RecentViews, err = e.recentViews(ctx, uid)
		if err != nil {
			return nil, err
		}
	}

	return e.Recommender.Recommend(restaurants, profile, own, opts)
}

func (e *Engine) scorableRestaurants(ctx context.Context) ([]catalog.Restaurant, error) {
	all, err := e.Storage.Restaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load restaurants: %w", err)
	}
	out := make([]catalog.Restaurant, 0, len(all))
	for i := range all {
		if err := catalog.ValidateRestaurantID(&all[i]); err != nil {
			e.Logger.WithError(err).Warn("Skipping restaurant that cannot be scored")
			metrics.RecordRejected(string(search.KindRestaurant))
			continue
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (e *Engine) recentViews(ctx context.Context, uid string) ([]string, error) {
	activities, err := e.Storage.Activities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	since := e.Now().Add(-RecentViewWindow)
	seen := make(map[string]struct{})
	views := make([]string, 0)
	for _, a := range activities {
		if a.UserID != uid || a.Type != catalog.ActivityView || a.Timestamp.Before(since) {
			continue
		}
		if _, dup := seen[a.TargetID]; dup {
			continue
		}
		seen[a.TargetID] = struct{}{}
		views = append(views, a.TargetID)
	}
	return views, nil
}

func (e *Engine) restaurant(ctx context.Context, id string) (catalog.Restaurant, error) {
	restaurants, err := e.Storage.Restaurants(ctx)
	if err != nil {
		return catalog.Restaurant{}, fmt.Errorf("load restaurants: %w", err)
	}
	for _, r := range restaurants {
		if r.ID == id {
			return r, nil
		}
	}
	return catalog.Restaurant{}, fmt.Errorf("restaurant %q: %w", id, storage.ErrNotFound)
}

// RestaurantAnalytics reports reviews, traffic and customer segments for one restaurant
func (e *Engine) RestaurantAnalytics(ctx context.Context, restaurantID string) (*RestaurantReport, error) {
	r, err := e.restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	reviews, err := e.Storage.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	activities, err := e.Storage.Activities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	profiles, err := e.Storage.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	uids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		uids = append(uids, p.UID)
	}

	own := analytics.ForTarget(activities, restaurantID)
	return &RestaurantReport{
		Restaurant: r,
		Reviews:    analytics.SummarizeReviews(catalog.ReviewsOf(reviews, restaurantID), 10),
		Views:      analytics.ViewTrends(own),
		Engagement: analytics.Engagement(own),
		PeakHours:  analytics.PeakHours(own, time.UTC),
		Segments:   analytics.CustomerSegments(activities, restaurantID, uids, e.Now()),
	}, nil
}

// Compare returns side-by-side rows for the requested restaurants in request order
func (e *Engine) Compare(ctx context.Context, ids []string) ([]analytics.Comparison, error) {
	restaurants, err := e.Storage.Restaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load restaurants: %w", err)
	}
	reviews, err := e.Storage.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}

	byID := make(map[string]catalog.Restaurant, len(restaurants))
	for _, r := range restaurants {
		byID[r.ID] = r
	}
	selected := make([]catalog.Restaurant, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("restaurant %q: %w", id, storage.ErrNotFound)
		}
		selected = append(selected, r)
	}
	return analytics.Compare(selected, reviews), nil
}

// StartClaim issues a verification code for restaurantID and mails it to email.
// A newer claim replaces any pending one for the same restaurant. Codes for
// one restaurant are at least Throttle.MinInterval apart.
func (e *Engine) StartClaim(ctx context.Context, restaurantID, email string) (c claim.Challenge, err error) {
	defer func() { metrics.RecordClaim("issue", err) }()

	r, err := e.restaurant(ctx, restaurantID)
	if err != nil {
		return claim.Challenge{}, err
	}
	now := e.Now()
	c, err = claim.Issue(r, email, now, e.Config.Claim.CodeTTL)
	if err != nil {
		return claim.Challenge{}, err
	}

	release, err := e.Throttle.Reserve(issueKey(restaurantID), now)
	if err != nil {
		metrics.RecordThrottled("issue")
		return claim.Challenge{}, err
	}

	if err := e.Mailer.Send(ctx, notify.VerificationEmail(c.Email, r, c.Code)); err != nil {
		release()
		return claim.Challenge{}, fmt.Errorf("send verification email: %w", err)
	}

	e.mu.Lock()
	e.claims[restaurantID] = c
	e.mu.Unlock()

	e.Logger.WithFields(logrus.Fields{
		"restaurant": restaurantID,
		"email":      c.Email,
	}).Info("Ownership claim started")
	return c, nil
}

// ConfirmClaim checks code against the pending claim and records the owner on success.
// Expired claims are discarded. Repeated wrong codes lock the restaurant's
// verification for Throttle.Lockout.
func (e *Engine) ConfirmClaim(ctx context.Context, restaurantID, code string) (c claim.Challenge, err error) {
	defer func() { metrics.RecordClaim("verify", err) }()

	now := e.Now()
	key := verifyKey(restaurantID)

	// the check and the failure count share e.mu so parallel guesses
	// cannot exceed MaxFailures
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.Throttle.Allow(key, now); err != nil {
		metrics.RecordThrottled("verify")
		return claim.Challenge{}, err
	}

	c, ok := e.claims[restaurantID]
	if !ok {
		return claim.Challenge{}, ErrNoPendingClaim
	}
	if err := claim.Verify(c, code, now); err != nil {
		switch {
		case errors.Is(err, claim.ErrExpired):
			delete(e.claims, restaurantID)
		case errors.Is(err, claim.ErrInvalidCode):
			e.Throttle.Failure(key, now)
		}
		return claim.Challenge{}, err
	}

	e.Throttle.Reset(key)
	delete(e.claims, restaurantID)
	e.owners[restaurantID] = c.Email
	e.Logger.WithField("restaurant", restaurantID).Info("Ownership claim verified")
	return c, nil
}

// Owner returns the verified owner email of a restaurant
func (e *Engine) Owner(restaurantID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	email, ok := e.owners[restaurantID]
	return email, ok
}

// NotifyReview tells the verified owner of the reviewed restaurant about a review
func (e *Engine) NotifyReview(ctx context.Context, reviewID string) (notify.Message, error) {
	reviews, err := e.Storage.Reviews(ctx)
	if err != nil {
		return notify.Message{}, fmt.Errorf("load reviews: %w", err)
	}
	var review *catalog.Review
	for i := range reviews {
		if reviews[i].ID == reviewID {
			review = &reviews[i]
			break
		}
	}
	if review == nil {
		return notify.Message{}, fmt.Errorf("review %q: %w", reviewID, storage.ErrNotFound)
	}

	r, err := e.restaurant(ctx, review.RestaurantID)
	if err != nil {
		return notify.Message{}, err
	}
	owner, ok := e.Owner(r.ID)
	if !ok {
		return notify.Message{}, fmt.Errorf("%w: %s", ErrNoOwner, r.ID)
	}

	msg := notify.NewReviewNotification(owner, *review, r)
	if err := e.Mailer.Send(ctx, msg); err != nil {
		return notify.Message{}, fmt.Errorf("send review notification: %w", err)
	}
	return msg, nil
}

// GenerateDraft asks the language model for a review draft, grounding the
// prompt in existing reviews that mention the restaurant.
func (e *Engine) GenerateDraft(ctx context.Context, req provider.DraftRequest) (draft provider.Draft, err error) {
	defer func() { metrics.RecordDraft(e.LLM.Name(), err) }()

	hits, err := e.Search(ctx, req.RestaurantName, search.Filters{Type: search.KindReview})
	if err != nil {
		return provider.Draft{}, err
	}
	var b strings.Builder
	for i, hit := range hits {
		if i == draftContextReviews {
			break
		}
		fmt.Fprintf(&b, "- %s\n", excerpt(hit.Text, draftExcerptRunes))
	}

	text, err := e.LLM.Generate(ctx, provider.BuildDraftPrompt(req, b.String()))
	if err != nil {
		e.Logger.WithError(err).Error("Draft generation failed")
		return provider.Draft{}, fmt.Errorf("generate draft: %w", err)
	}
	return provider.ParseDraft(text)
}

// Digest builds and sends the weekly recommendation email for uid
func (e *Engine) Digest(ctx context.Context, uid string) (notify.Message, error) {
	profile, err := e.Storage.Profile(ctx, uid)
	if err != nil {
		return notify.Message{}, err
	}

	size := e.Config.Recommend.DigestSize
	if size <= 0 {
		size = notify.DigestSize
	}
	recs, err := e.Recommend(ctx, uid, recommend.Options{Limit: size})
	if err != nil {
		return notify.Message{}, err
	}
	top := make([]catalog.Restaurant, 0, len(recs))
	for _, rec := range recs {
		top = append(top, rec.Restaurant)
	}

	msg := notify.WeeklyDigest(*profile, top)
	if err := e.Mailer.Send(ctx, msg); err != nil {
		return notify.Message{}, fmt.Errorf("send digest: %w", err)
	}
	return msg, nil
}

// RecordActivity stores a tracked interaction, stamping id and time when missing
func (e *Engine) RecordActivity(ctx context.Context, a catalog.Activity) (catalog.Activity, error) {
	switch a.Type {
	case catalog.ActivityView, catalog.ActivityLike, catalog.ActivityComment,
		catalog.ActivityBookmark, catalog.ActivityShare, catalog.ActivityVisit:
	default:
		return catalog.Activity{}, fmt.Errorf("%w: unknown type %q", ErrInvalidActivity, a.Type)
	}
	if a.UserID == "" || a.TargetID == "" {
		return catalog.Activity{}, fmt.Errorf("%w: user and target are required", ErrInvalidActivity)
	}
	if a.ID == "" {
		a.ID = newID()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = e.Now().UTC()
	}
	if err := e.Storage.RecordActivity(ctx, a); err != nil {
		return catalog.Activity{}, err
	}
	return a, nil
}

// Status reports catalog sizes and pending claims
func (e *Engine) Status(ctx context.Context) (Status, error) {
	restaurants, err := e.Storage.Restaurants(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("load restaurants: %w", err)
	}
	reviews, err := e.Storage.Reviews(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("load reviews: %w", err)
	}

	e.mu.Lock()
	pending := len(e.claims)
	e.mu.Unlock()

	return Status{
		Storage:       e.Config.Storage.Backend,
		LLM:           e.LLM.Name(),
		Restaurants:   len(restaurants),
		Reviews:       len(reviews),
		PendingClaims: pending,
		Throttle:      e.Throttle.Statistics(),
		Uptime:        time.Since(e.startTime).Round(time.Second).String(),
	}, nil
}

func issueKey(restaurantID string) string { return "issue:" + restaurantID }
func verifyKey(restaurantID string) string { return "verify:" + restaurantID }

func newID() string {
	return uuid.NewString()
}

// excerpt shortens text to at most n runes, marking the cut with "..."
func excerpt(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}
