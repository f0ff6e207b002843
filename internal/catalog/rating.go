package catalog

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// UndeterminedLabel is the wire form of a rating that has not been assigned yet
const UndeterminedLabel = "TBD"

const (
	MinRating = 0
	MaxRating = 100
)

// Rating is either a number in [0,100] or undetermined.
// The zero value is undetermined.
type Rating struct {
	value      float64
	determined bool
}

// NumericRating returns a determined rating. Range is checked by ValidateReview.
func NumericRating(v float64) Rating {
	return Rating{value: v, determined: true}
}

// Undetermined returns the pending-rating sentinel
func Undetermined() Rating {
	return Rating{}
}

// Value reports the numeric rating and whether one has been assigned
func (r Rating) Value() (float64, bool) {
	return r.value, r.determined
}

func (r Rating) IsUndetermined() bool {
	return !r.determined
}

// ScoreOrZero is the recommendation scoring placeholder: undetermined counts as 0.
// Displayed averages must not use it.
func (r Rating) ScoreOrZero() float64 {
	if !r.determined {
		return 0
	}
	return r.value
}

func (r Rating) String() string {
	if !r.determined {
		return UndeterminedLabel
	}
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}

func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.determined {
		return []byte(strconv.Quote(UndeterminedLabel)), nil
	}
	return []byte(strconv.FormatFloat(r.value, 'f', -1, 64)), nil
}

func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Undetermined()
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("rating: %w", err)
		}
		return r.parseLabel(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	*r = NumericRating(v)
	return nil
}

// ParseRating accepts "TBD" (any case), an empty string, or a number
func ParseRating(s string) (Rating, error) {
	var r Rating
	err := r.parseLabel(s)
	return r, err
}

func (r *Rating) parseLabel(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, UndeterminedLabel) {
		*r = Undetermined()
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("rating: unrecognised value %q", s)
	}
	*r = NumericRating(v)
	return nil
}
