package catalog_test

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcfoodblog/backend/internal/catalog"
)

func TestRatingDecode(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		undetermined bool
		value        float64
		wantErr      bool
	}{
		{"Number", `87`, false, 87, false},
		{"Fraction", `92.5`, false, 92.5, false},
		{"Zero is a real score", `0`, false, 0, false},
		{"TBD", `"TBD"`, true, 0, false},
		{"Lowercase tbd", `"tbd"`, true, 0, false},
		{"Null", `null`, true, 0, false},
		{"Numeric string", `"75"`, false, 75, false},
		{"Garbage", `"great"`, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r catalog.Rating
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.undetermined, r.IsUndetermined())
			v, ok := r.Value()
			assert.Equal(t, !tt.undetermined, ok)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestRatingEncode(t *testing.T) {
	data, err := json.Marshal(struct {
		A catalog.Rating `json:"a"`
		B catalog.Rating `json:"b"`
	}{A: catalog.NumericRating(88), B: catalog.Undetermined()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 88, "b": "TBD"}`, string(data))
}

func TestRatingScoreOrZero(t *testing.T) {
	assert.Equal(t, 0.0, catalog.Undetermined().ScoreOrZero())
	assert.Equal(t, 64.0, catalog.NumericRating(64).ScoreOrZero())
	assert.Equal(t, "TBD", catalog.Rating{}.String())
}

func TestValidateRestaurant(t *testing.T) {
	ok := &catalog.Restaurant{ID: "r1", Name: "Kyoto Sushi House"}
	assert.NoError(t, catalog.ValidateRestaurant(ok))

	err := catalog.ValidateRestaurant(&catalog.Restaurant{ID: "r2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrInvalidRecord))
	assert.Contains(t, err.Error(), "name is required")

	var verr *catalog.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "r2", verr.ID)
	assert.Equal(t, "name", verr.Fields[0].Field)

	badCoords := &catalog.Restaurant{
		ID:   "r3",
		Name: "Nowhere",
		Location: catalog.Location{
			City:        "DC",
			Coordinates: &catalog.Coordinates{Lat: 123, Lng: 10},
		},
	}
	err = catalog.ValidateRestaurant(badCoords)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")

	assert.Error(t, catalog.ValidateRestaurant(nil))
}

func TestValidateRestaurantID(t *testing.T) {
	assert.NoError(t, catalog.ValidateRestaurantID(&catalog.Restaurant{ID: "a"}))
	assert.ErrorIs(t, catalog.ValidateRestaurantID(&catalog.Restaurant{ID: "  "}), catalog.ErrInvalidRecord)
}

func TestValidateReview(t *testing.T) {
	base := catalog.Review{
		ID:           "p1",
		RestaurantID: "r1",
		Title:        "Great rolls",
		Content:      "Fresh fish.",
		Rating:       catalog.NumericRating(90),
	}
	assert.NoError(t, catalog.ValidateReview(&base))

	pending := base
	pending.Rating = catalog.Undetermined()
	assert.NoError(t, catalog.ValidateReview(&pending))

	tooHigh := base
	tooHigh.Rating = catalog.NumericRating(101)
	err := catalog.ValidateReview(&tooHigh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating must be between 0 and 100")

	missing := catalog.Review{ID: "p2"}
	err = catalog.ValidateReview(&missing)
	require.Error(t, err)
	var verr *catalog.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
}

func TestReviewsOf(t *testing.T) {
	reviews := []catalog.Review{
		{ID: "1", RestaurantID: "a"},
		{ID: "2", RestaurantID: "b"},
		{ID: "3", RestaurantID: "a"},
	}
	got := catalog.ReviewsOf(reviews, "a")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestValidateRequest(t *testing.T) {
	type claimRequest struct {
		Email string `json:"email" validate:"required,email"`
		Kind  string `json:"kind" validate:"omitempty,oneof=view visit"`
	}

	assert.NoError(t, catalog.ValidateRequest("claim request", &claimRequest{Email: "a@b.com"}))

	err := catalog.ValidateRequest("claim request", &claimRequest{Email: "nope", Kind: "poke"})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)
	assert.Equal(t, "invalid claim request: email must be a valid email address; kind must be one of view visit", err.Error())
}
