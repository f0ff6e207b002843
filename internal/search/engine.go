package search

import (
	"sort"
	"strings"
)

// Filters narrows a search. Zero-valued fields are not applied; the rest combine with AND.
type Filters struct {
	Type Kind `json:"type,omitempty"`
	// Cuisine and Location only constrain restaurant documents.
	// Review documents pass through them unfiltered.
	Cuisine   []string `json:"cuisine,omitempty"`
	Location  []string `json:"location,omitempty"`
	MinRating *float64 `json:"minRating,omitempty"`
}

// IsZero reports whether no filter is set
func (f Filters) IsZero() bool {
	return f.Type == "" && len(f.Cuisine) == 0 && len(f.Location) == 0 && f.MinRating == nil
}

// Terms lowercases the query and splits it on whitespace
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

type rankedDocument struct {
	doc     Document
	matches int
}

// Search returns the documents that pass the filters and contain every query
// term as a substring, ordered by the number of matched terms. Ties keep input order.
func Search(documents []Document, query string, filters Filters) []Document {
	terms := Terms(query)

	ranked := make([]rankedDocument, 0, len(documents))
	for _, doc := range documents {
		if !filters.Match(doc) {
			continue
		}
		matches := countMatches(doc.Text, terms)
		if matches < len(terms) {
			continue
		}
		ranked = append(ranked, rankedDocument{doc: doc, matches: matches})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].matches > ranked[j].matches
	})

	results := make([]Document, len(ranked))
	for i, r := range ranked {
		results[i] = r.doc
	}
	return results
}

// Match applies the filters to a single document
func (f Filters) Match(doc Document) bool {
	if f.Type != "" && doc.Type != f.Type {
		return false
	}

	if doc.Type == KindRestaurant {
		if len(f.Cuisine) > 0 && !intersects(f.Cuisine, doc.Metadata.Cuisine) {
			return false
		}
		if len(f.Location) > 0 {
			city := ""
			if doc.Metadata.Location != nil {
				city = doc.Metadata.Location.City
			}
			if !contains(f.Location, city) {
				return false
			}
		}
	}

	if f.MinRating != nil {
		if doc.Metadata.Rating == nil || *doc.Metadata.Rating < *f.MinRating {
			return false
		}
	}

	return true
}

func countMatches(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if contains(b, x) {
			return true
		}
	}
	return false
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
