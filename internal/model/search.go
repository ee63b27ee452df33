package model

import "time"

// Search is a single entry in a user's search history, embedded in the user
// document. Entries are append-only from the user's perspective.
type Search struct {
	Query     string         `bson:"query"             json:"query"             validate:"required"`
	Filters   *SearchFilters `bson:"filters,omitempty" json:"filters,omitempty" validate:"omitempty"`
	Timestamp time.Time      `bson:"timestamp"         json:"timestamp"`
}

// SearchFilters narrows a search query. All fields are optional.
type SearchFilters struct {
	Genre     []string   `bson:"genre,omitempty"      json:"genre,omitempty"`
	Language  []string   `bson:"language,omitempty"   json:"language,omitempty"`
	YearRange *YearRange `bson:"year_range,omitempty" json:"yearRange,omitempty" validate:"omitempty"`
	Rating    *float64   `bson:"rating,omitempty"     json:"imdbRating,omitempty" validate:"omitempty,gte=0,lte=10"`
}

// YearRange bounds a search by release year. The lower bound may not precede
// 1900 and the upper bound may not exceed the current year.
type YearRange struct {
	Start int `bson:"start" json:"start" validate:"omitempty,gte=1900"`
	End   int `bson:"end"   json:"end"   validate:"omitempty,lte_current_year"`
}
