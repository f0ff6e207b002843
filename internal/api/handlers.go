package api

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/dcfoodblog/backend/internal/analytics"
	"github.com/dcfoodblog/backend/internal/catalog"
	"github.com/dcfoodblog/backend/internal/claim"
	"github.com/dcfoodblog/backend/internal/engine"
	"github.com/dcfoodblog/backend/internal/provider"
	"github.com/dcfoodblog/backend/internal/recommend"
	"github.com/dcfoodblog/backend/internal/search"
	"github.com/dcfoodblog/backend/internal/storage"
	"github.com/dcfoodblog/backend/internal/throttle"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SearchResponse struct {
	Query   string            `json:"query"`
	Filters search.Filters    `json:"filters"`
	Count   int               `json:"count"`
	Results []search.Document `json:"results"`
}

type RecommendationsResponse struct {
	UserID          string                     `json:"userId"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

type CompareResponse struct {
	Restaurants []analytics.Comparison `json:"restaurants"`
}

type ClaimRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyClaimRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

type ActivityRequest struct {
	Type       catalog.ActivityType `json:"type" validate:"required"`
	TargetID   string               `json:"targetId" validate:"required"`
	TargetType string               `json:"targetType,omitempty"`
	Metadata   map[string]string    `json:"metadata,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Engine.Status(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, status)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))

	filters := search.Filters{
		Cuisine:  listParam(q["cuisine"]),
		Location: listParam(q["location"]),
	}
	switch kind := search.Kind(q.Get("type")); kind {
	case "", search.KindRestaurant, search.KindReview:
		filters.Type = kind
	default:
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "type must be restaurant or review"})
		return
	}
	if raw := q.Get("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "minRating must be a number"})
			return
		}
		filters.MinRating = &v
	}

	if query == "" && filters.IsZero() {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'q' or a filter is required"})
		return
	}

	results, err := s.Engine.Search(r.Context(), query, filters)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, SearchResponse{
		Query:   query,
		Filters: filters,
		Count:   len(results),
		Results: results,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	opts := recommend.Options{}
	if raw := r.URL.Query().Get("explain"); raw != "" {
		explain, err := strconv.ParseBool(raw)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "explain must be a boolean"})
			return
		}
		opts.Explain = explain
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		opts.Limit = limit
	}

	recs, err := s.Engine.Recommend(r.Context(), user.ID, opts)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, RecommendationsResponse{UserID: user.ID, Recommendations: recs})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	msg, err := s.Engine.Digest(r.Context(), user.ID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, msg)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.Engine.RestaurantAnalytics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ids := listParam(r.URL.Query()["ids"])
	if len(ids) < 2 {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "at least two restaurant ids are required"})
		return
	}
	rows, err := s.Engine.Compare(r.Context(), ids)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, CompareResponse{Restaurants: rows})
}

func (s *Server) handleStartClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if !s.decode(w, r, "claim request", &req) {
		return
	}

	c, err := s.Engine.StartClaim(r.Context(), chi.URLParam(r, "id"), req.Email)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusAccepted, c)
}

func (s *Server) handleVerifyClaim(w http.ResponseWriter, r *http.Request) {
	var req VerifyClaimRequest
	if !s.decode(w, r, "verification request", &req) {
		return
	}

	c, err := s.Engine.ConfirmClaim(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{
		"status":       "verified",
		"restaurantId": c.RestaurantID,
		"owner":        c.Email,
	})
}

func (s *Server) handleNotifyReview(w http.ResponseWriter, r *http.Request) {
	msg, err := s.Engine.NotifyReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusAccepted, msg)
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req ActivityRequest
	if !s.decode(w, r, "activity", &req) {
		return
	}

	a, err := s.Engine.RecordActivity(r.Context(), catalog.Activity{
		Type:       req.Type,
		UserID:     user.ID,
		TargetID:   req.TargetID,
		TargetType: req.TargetType,
		Metadata:   req.Metadata,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, a)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req provider.DraftRequest
	if !s.decode(w, r, "draft request", &req) {
		return
	}

	draft, err := s.Engine.GenerateDraft(r.Context(), req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, draft)
}

// decode reads a JSON body into v and validates it, writing a 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, kind string, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonResponse(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
		return false
	}
	if err := catalog.ValidateRequest(kind, v); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

// errorResponse maps engine errors onto HTTP status codes
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, engine.ErrNoPendingClaim):
		code = http.StatusNotFound
	case errors.Is(err, claim.ErrExpired):
		code = http.StatusGone
	case errors.Is(err, engine.ErrNoOwner):
		code = http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidRecord),
		errors.Is(err, engine.ErrInvalidActivity),
		errors.Is(err, claim.ErrDomainMismatch),
		errors.Is(err, claim.ErrNoDomain),
		errors.Is(err, claim.ErrInvalidEmail),
		errors.Is(err, claim.ErrInvalidCode):
		code = http.StatusBadRequest
	case errors.Is(err, provider.ErrMalformedDraft):
		code = http.StatusBadGateway
	case errors.Is(err, throttle.ErrThrottled):
		code = http.StatusTooManyRequests
		var te *throttle.ThrottledError
		if errors.As(err, &te) {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(te.RetryAfter.Seconds()))))
		}
	}

	if code == http.StatusInternalServerError {
		s.Logger.WithError(err).Error("Request failed")
	}
	jsonResponse(w, code, ErrorResponse{Error: err.Error()})
}

// listParam flattens repeated and comma separated query values
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
