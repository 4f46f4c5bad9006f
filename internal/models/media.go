// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package models

import (
	"strconv"
	"strings"
	"time"
)

// MediaType classifies catalog content.
type MediaType string

const (
	// MediaTypeMovie is feature-length content.
	MediaTypeMovie MediaType = "movie"
	// MediaTypeSeries is episodic content.
	MediaTypeSeries MediaType = "series"
	// MediaTypeUnknown is used when an identifier resolved but the
	// content class could not be determined from the lookup alone.
	MediaTypeUnknown MediaType = "unknown"
)

// AnimationGenreID is TMDB's genre id for Animation, the anchor of the
// anime classification.
const AnimationGenreID = 16

// PlaybackState captures how far a user got through a library item.
type PlaybackState struct {
	LastWatched      time.Time `json:"lastWatched"`
	Season           int       `json:"season,omitempty"`
	Episode          int       `json:"episode,omitempty"`
	TimeOffset       float64   `json:"timeOffset,omitempty"` // elapsed, same unit as Duration
	Duration         float64   `json:"duration,omitempty"`
	FlaggedAsWatched bool      `json:"flaggedAsWatched,omitempty"`
}

// Progress returns playback completion as a fraction of duration,
// or 0 when duration is unknown.
func (s PlaybackState) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.TimeOffset / s.Duration
}

// HasHistory reports whether the item carries any residual playback signal.
func (s PlaybackState) HasHistory() bool {
	return s.TimeOffset > 0 || !s.LastWatched.IsZero()
}

// LibraryItem is one entry of a user's watch history, as returned by a
// library source. Items are replaced wholesale on refetch and never mutated.
type LibraryItem struct {
	// ID is the opaque source identifier (e.g. "tt0111161", "tmdb:603",
	// "kitsu:1"). Items without one are dropped during selection.
	ID string `json:"_id"`

	// TMDBID and IMDBID are cross-scheme equivalents when the source
	// already knows them (the alternate watch-history provider does).
	TMDBID string `json:"_tmdbId,omitempty"`
	IMDBID string `json:"_imdbId,omitempty"`

	Type MediaType `json:"type"`
	Name string    `json:"name"`
	Year string    `json:"year,omitempty"`

	// Removed marks items deleted from the library; they are kept for
	// selection only while residual playback progress remains.
	Removed bool `json:"removed,omitempty"`

	State PlaybackState `json:"state"`
}

// ExternalIDs is the alternate-scheme identifier bundle for a title.
type ExternalIDs struct {
	IMDBID string `json:"imdb_id,omitempty"`
	TVDBID int    `json:"tvdb_id,omitempty"`
}

// Person is a cast or crew member from a title's credits.
type Person struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job,omitempty"` // crew only, e.g. "Director"
}

// Credits holds the cast/crew expansion of a canonical record.
type Credits struct {
	Cast []Person `json:"cast,omitempty"`
	Crew []Person `json:"crew,omitempty"`
}

// Expand selects which optional expansions an identifier resolution
// should fetch alongside the base detail record. Detail records are
// cached keyed by the expansion set, so two different selections never
// alias each other.
type Expand struct {
	Recommendations bool
	ExternalIDs     bool
	Credits         bool
}

// Empty reports whether no expansion is requested.
func (e Expand) Empty() bool {
	return !e.Recommendations && !e.ExternalIDs && !e.Credits
}

// String renders the expansion set as a stable comma-separated key,
// mirroring the provider's append-to-response parameter.
func (e Expand) String() string {
	parts := make([]string, 0, 3)
	if e.Recommendations {
		parts = append(parts, "recommendations")
	}
	if e.ExternalIDs {
		parts = append(parts, "external_ids")
	}
	if e.Credits {
		parts = append(parts, "credits")
	}
	return strings.Join(parts, ",")
}

// CanonicalItem is a fully resolved provider record under the primary
// provider's numeric id. The id is immutable once resolved; enriched
// copies flow downstream.
type CanonicalItem struct {
	ID               int       `json:"id"`
	Type             MediaType `json:"type"`
	Title            string    `json:"title,omitempty"`
	Name             string    `json:"name,omitempty"`
	Overview         string    `json:"overview,omitempty"`
	PosterPath       string    `json:"poster_path,omitempty"`
	BackdropPath     string    `json:"backdrop_path,omitempty"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	FirstAirDate     string    `json:"first_air_date,omitempty"`
	VoteAverage      float64   `json:"vote_average,omitempty"`
	Popularity       float64   `json:"popularity,omitempty"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	OriginalLanguage string    `json:"original_language,omitempty"`

	// Optional expansions.
	Recommendations []Candidate  `json:"recommendations,omitempty"`
	Credits         *Credits     `json:"credits,omitempty"`
	External        *ExternalIDs `json:"external_ids,omitempty"`

	// AniListID is attached by the anime bridge when the title is known
	// to the anime database; zero when unmapped.
	AniListID int `json:"anilist_id,omitempty"`
}

// DisplayTitle returns the best available human-readable title.
func (c *CanonicalItem) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// ReleaseOrAirDate returns the release date for movies or the first air
// date for series, whichever is set.
func (c *CanonicalItem) ReleaseOrAirDate() string {
	if c.ReleaseDate != "" {
		return c.ReleaseDate
	}
	return c.FirstAirDate
}

// IsAnime reports whether the record classifies as anime: the Animation
// genre combined with an east-asian original language.
func (c *CanonicalItem) IsAnime() bool {
	return isAnime(c.GenreIDs, c.OriginalLanguage)
}

func isAnime(genreIDs []int, lang string) bool {
	animation := false
	for _, id := range genreIDs {
		if id == AnimationGenreID {
			animation = true
			break
		}
	}
	return animation && (lang == "ja" || lang == "zh" || lang == "ko")
}

// ParseTMDBID extracts the numeric id from a "tmdb:<id>" identifier.
// Returns 0 when the identifier is not in that scheme.
func ParseTMDBID(id string) int {
	raw, ok := strings.CutPrefix(id, "tmdb:")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
