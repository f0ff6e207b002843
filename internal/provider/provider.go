package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dcfoodblog/backend/internal/catalog"
)

// LLMProvider defines the interface for AI model integration
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

var ErrMalformedDraft = errors.New("malformed draft")

// DraftRequest names the restaurant a review draft is written about
type DraftRequest struct {
	RestaurantName string `json:"restaurantName" validate:"required"`
	Location       string `json:"location" validate:"required"`
}

// Draft is a generated review awaiting human editing.
// The rating of a draft is always undetermined until a reviewer visits.
type Draft struct {
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	CuisineTags     []string       `json:"cuisineTags"`
	LocationTags    []string       `json:"locationTags"`
	SuggestedRating catalog.Rating `json:"suggestedRating"`
}

// BuildDraftPrompt asks for a review draft as JSON. context holds excerpts of
// existing reviews and may be empty.
func BuildDraftPrompt(req DraftRequest, context string) string {
	if context == "" {
		context = "No existing reviews available."
	}

	return "You are a food writer for a Washington DC restaurant blog.\n" +
		"Write a blog post about " + req.RestaurantName + " in " + req.Location + ".\n" +
		"Include information about:\n" +
		"1. The type of cuisine\n" +
		"2. Popular dishes\n" +
		"3. Atmosphere and ambiance\n" +
		"4. Location and accessibility\n" +
		"5. Price range\n\n" +
		"EXISTING REVIEWS:\n" + context + "\n\n" +
		"Respond with JSON only, using these fields:\n" +
		`{"title": string, "content": string, "cuisineTags": string[], "locationTags": string[], "suggestedRating": "TBD"}` + "\n"
}

// ParseDraft extracts the JSON draft from a model response. Markdown code
// fences and text around the object are ignored.
func ParseDraft(text string) (Draft, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Draft{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedDraft)
	}

	var raw struct {
		Title        string   `json:"title"`
		Content      string   `json:"content"`
		CuisineTags  []string `json:"cuisineTags"`
		LocationTags []string `json:"locationTags"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}

	draft := Draft{
		Title:           strings.TrimSpace(raw.Title),
		Content:         strings.TrimSpace(raw.Content),
		CuisineTags:     cleanTags(raw.CuisineTags),
		LocationTags:    cleanTags(raw.LocationTags),
		SuggestedRating: catalog.Undetermined(),
	}
	if draft.Title == "" || draft.Content == "" {
		return Draft{}, fmt.Errorf("%w: title and content are required", ErrMalformedDraft)
	}
	return draft, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
