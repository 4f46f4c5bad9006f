// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package models

import "strconv"

// Source identifies which engine produced a recommendation candidate.
// The discriminant is set at candidate-creation time; downstream filters
// branch on it instead of probing optional fields.
type Source int

const (
	// SourceMetadata marks candidates that came from the primary metadata
	// provider (detail-record recommendations or discovery feeds). They
	// carry full list metadata and are filtered pre-resolution.
	SourceMetadata Source = iota
	// SourceSocial marks candidates from the social/trending related-titles
	// engine. They carry only an id until resolved.
	SourceSocial
	// SourceAnime marks candidates from the anime recommendation engine,
	// identified by an anime-scheme id ("mal:<id>") until resolved.
	SourceAnime
	// SourceAnimeTrending marks gap-fill candidates from the trending
	// anime feed.
	SourceAnimeTrending
)

// String returns the source tag used in logs.
func (s Source) String() string {
	switch s {
	case SourceMetadata:
		return "metadata"
	case SourceSocial:
		return "social"
	case SourceAnime:
		return "anime"
	case SourceAnimeTrending:
		return "anime_trending"
	default:
		return "unknown"
	}
}

// External reports whether the candidate came from an engine that does not
// supply full metadata. External candidates skip pre-resolution detail
// filters and are resolved before the authoritative second pass.
func (s Source) External() bool {
	return s == SourceSocial || s == SourceAnime || s == SourceAnimeTrending
}

// Candidate is one recommended title flowing through merge/filter.
// Exactly one of TMDBID or RawID identifies it: candidates from the anime
// engine arrive under an anime-scheme RawID and gain a TMDBID on resolution.
type Candidate struct {
	Source Source `json:"-"`

	TMDBID int    `json:"id,omitempty"`
	RawID  string `json:"raw_id,omitempty"` // e.g. "mal:5114"

	Type             MediaType `json:"type,omitempty"`
	Title            string    `json:"title,omitempty"`
	Name             string    `json:"name,omitempty"`
	Overview         string    `json:"overview,omitempty"`
	PosterPath       string    `json:"poster_path,omitempty"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	GenreNames       []string  `json:"genres,omitempty"` // anime engine supplies names, not ids
	Tags             []string  `json:"tags,omitempty"`   // free-text tags from the anime engine
	VoteAverage      float64   `json:"vote_average,omitempty"`
	Popularity       float64   `json:"popularity,omitempty"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	FirstAirDate     string    `json:"first_air_date,omitempty"`
	OriginalLanguage string    `json:"original_language,omitempty"`

	IMDBID   string       `json:"imdb_id,omitempty"`
	External *ExternalIDs `json:"external_ids,omitempty"`

	// FinalID is the public identifier in the caller-configured scheme,
	// set by the target-id converter as the last pipeline stage.
	FinalID string `json:"final_id,omitempty"`
}

// Key returns the deduplication key: the provider id when known, else the
// raw alternate-scheme id.
func (c *Candidate) Key() string {
	if c.TMDBID != 0 {
		return strconv.Itoa(c.TMDBID)
	}
	return c.RawID
}

// DisplayTitle returns the best available human-readable title.
func (c *Candidate) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if c.Name != "" {
		return c.Name
	}
	return "Unknown"
}

// ReleaseOrAirDate returns whichever of the release/first-air dates is set.
func (c *Candidate) ReleaseOrAirDate() string {
	if c.ReleaseDate != "" {
		return c.ReleaseDate
	}
	return c.FirstAirDate
}

// IsAnime reports the anime classification for candidates carrying full
// metadata. External-source candidates lack genre ids; callers combine this
// with the catalog's anime flag for those.
func (c *Candidate) IsAnime() bool {
	return isAnime(c.GenreIDs, c.OriginalLanguage)
}

// FromCanonical converts a resolved record into a candidate tagged with the
// given source, carrying over everything the filters need.
func FromCanonical(item *CanonicalItem, src Source) Candidate {
	return Candidate{
		Source:           src,
		TMDBID:           item.ID,
		Type:             item.Type,
		Title:            item.Title,
		Name:             item.Name,
		Overview:         item.Overview,
		PosterPath:       item.PosterPath,
		GenreIDs:         item.GenreIDs,
		VoteAverage:      item.VoteAverage,
		Popularity:       item.Popularity,
		ReleaseDate:      item.ReleaseDate,
		FirstAirDate:     item.FirstAirDate,
		OriginalLanguage: item.OriginalLanguage,
		External:         item.External,
	}
}
