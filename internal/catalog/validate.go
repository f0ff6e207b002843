package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord is wrapped by every ValidationError
var ErrInvalidRecord = errors.New("invalid record")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names so messages match the wire format.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// FieldError describes one failing field
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

func (f FieldError) message() string {
	switch f.Tag {
	case "required":
		return f.Field + " is required"
	case "latitude":
		return f.Field + " must be a valid latitude"
	case "longitude":
		return f.Field + " must be a valid longitude"
	case "range":
		return f.Field + " must be between " + f.Param
	case "email":
		return f.Field + " must be a valid email address"
	case "len":
		return f.Field + " must be " + f.Param + " characters"
	case "oneof":
		return f.Field + " must be one of " + f.Param
	default:
		return fmt.Sprintf("%s failed %s validation", f.Field, f.Tag)
	}
}

// ValidationError reports every problem found in one record
type ValidationError struct {
	Kind   string
	ID     string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.message())
	}
	if e.ID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.ID, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// ValidateRestaurant checks the fields needed to index a restaurant
func ValidateRestaurant(r *Restaurant) error {
	if r == nil {
		return &ValidationError{Kind: "restaurant", Fields: []FieldError{{Field: "restaurant", Tag: "required"}}}
	}
	return collect("restaurant", r.ID, instance().Struct(r), nil)
}

// ValidateRestaurantID checks the only field scoring depends on
func ValidateRestaurantID(r *Restaurant) error {
	if r == nil {
		return &ValidationError{Kind: "restaurant", Fields: []FieldError{{Field: "restaurant", Tag: "required"}}}
	}
	err := instance().Var(strings.TrimSpace(r.ID), "required")
	if err == nil {
		return nil
	}
	return &ValidationError{Kind: "restaurant", Fields: []FieldError{{Field: "id", Tag: "required"}}}
}

// ValidateReview checks a review's identity, text and rating range
func ValidateReview(r *Review) error {
	if r == nil {
		return &ValidationError{Kind: "review", Fields: []FieldError{{Field: "review", Tag: "required"}}}
	}
	var extra []FieldError
	if v, ok := r.Rating.Value(); ok && (v < MinRating || v > MaxRating) {
		extra = append(extra, FieldError{Field: "rating", Tag: "range", Param: fmt.Sprintf("%d and %d", MinRating, MaxRating)})
	}
	return collect("review", r.ID, instance().Struct(r), extra)
}

// ValidateRequest checks an inbound request body against its validate tags
func ValidateRequest(kind string, v interface{}) error {
	return collect(kind, "", instance().Struct(v), nil)
}

func collect(kind, id string, err error, extra []FieldError) error {
	var fields []FieldError
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate %s: %w", kind, err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
		}
	}
	fields = append(fields, extra...)
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, ID: id, Fields: fields}
}
