// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package config

import "time"

// Cache TTLs. An entry past its TTL is treated as absent by the store.
const (
	// TTLLibrary bounds how long a fetched watch history is reused.
	TTLLibrary = 15 * time.Minute

	// TTLIDMap covers raw-identifier to canonical-id mappings, which are
	// effectively immutable.
	TTLIDMap = 7 * 24 * time.Hour

	// TTLDetails covers enriched canonical detail records.
	TTLDetails = 3 * 24 * time.Hour

	// TTLExternalIDs covers alternate-scheme identifier bundles.
	TTLExternalIDs = 30 * 24 * time.Hour

	// TTLDiscovery covers discovery/trending feed pages.
	TTLDiscovery = 2 * 24 * time.Hour

	// TTLCatalog is the hard TTL for generated catalogs; past it the
	// cached payload is treated as absent.
	TTLCatalog = 24 * time.Hour

	// CatalogStaleAfter is the stale-while-revalidate threshold: a cached
	// catalog older than this is still served but triggers one background
	// refresh.
	CatalogStaleAfter = 4 * time.Hour

	// TTLAnimeTrending covers the trending-anime gap-fill feed.
	TTLAnimeTrending = 24 * time.Hour

	// TTLNegative covers negative lookup results (soft-misses), so a
	// missing mapping is not re-queried on every request.
	TTLNegative = 24 * time.Hour
)

// MovieGenres maps the movie genre names offered in catalog filters to the
// metadata provider's genre ids.
var MovieGenres = map[string]int{
	"Action": 28, "Adventure": 12, "Animation": 16, "Comedy": 35, "Crime": 80,
	"Documentary": 99, "Drama": 18, "Family": 10751, "Fantasy": 14, "History": 36,
	"Horror": 27, "Music": 10402, "Mystery": 9648, "Romance": 10749, "Sci-Fi": 878,
	"Thriller": 53, "War": 10752, "Western": 37,
}

// SeriesGenres maps series genre names to provider genre ids.
var SeriesGenres = map[string]int{
	"Action & Adventure": 10759, "Animation": 16, "Comedy": 35, "Crime": 80,
	"Documentary": 99, "Drama": 18, "Family": 10751, "Kids": 10762, "Mystery": 9648,
	"News": 10763, "Reality": 10764, "Sci-Fi & Fantasy": 10765, "Soap": 10766,
	"Talk": 10767, "War & Politics": 10768, "Western": 37,
}

// GenreNameByID maps every known provider genre id back to its display
// name, used for excluded-genre matching by name.
var GenreNameByID = map[int]string{
	28: "Action", 12: "Adventure", 16: "Animation", 35: "Comedy", 80: "Crime",
	99: "Documentary", 18: "Drama", 10751: "Family", 14: "Fantasy", 36: "History",
	27: "Horror", 10402: "Music", 9648: "Mystery", 10749: "Romance", 878: "Science Fiction",
	10770: "TV Movie", 53: "Thriller", 10752: "War", 37: "Western",
	10759: "Action & Adventure", 10762: "Kids", 10763: "News", 10764: "Reality",
	10765: "Sci-Fi & Fantasy", 10766: "Soap", 10767: "Talk", 10768: "War & Politics",
}

// CatalogDefinition describes one addon catalog surface.
type CatalogDefinition struct {
	Key          string   // short config key, e.g. "std_mov"
	ID           string   // public catalog id
	Type         string   // movie or series
	Name         string   // default display name
	GenreOptions []string // genre filter options, empty when unsupported
}

// genreOptions returns the sorted key list of a genre map; kept as fixed
// slices so the manifest output is stable.
var (
	movieGenreOptions = []string{
		"Action", "Adventure", "Animation", "Comedy", "Crime", "Documentary",
		"Drama", "Family", "Fantasy", "History", "Horror", "Music", "Mystery",
		"Romance", "Sci-Fi", "Thriller", "War", "Western",
	}
	seriesGenreOptions = []string{
		"Action & Adventure", "Animation", "Comedy", "Crime", "Documentary",
		"Drama", "Family", "Kids", "Mystery", "News", "Reality",
		"Sci-Fi & Fantasy", "Soap", "Talk", "War & Politics", "Western",
	}
)

// CatalogDefinitions lists every catalog the addon can expose, in default
// display order.
var CatalogDefinitions = []CatalogDefinition{
	{Key: "std_mov", ID: "personalized_recs_movies", Type: "movie", Name: "Recommended Movies", GenreOptions: movieGenreOptions},
	{Key: "std_ser", ID: "personalized_recs_series", Type: "series", Name: "Recommended Series", GenreOptions: seriesGenreOptions},
	{Key: "crew_mov", ID: "personalized_crew_movies", Type: "movie", Name: "Recommended by Cast & Crew (Movies)"},
	{Key: "crew_ser", ID: "personalized_crew_series", Type: "series", Name: "Recommended by Cast & Crew (Series)"},
	{Key: "ani_mov", ID: "personalized_recs_anime_movies", Type: "movie", Name: "Recommended Anime Movies"},
	{Key: "ani_ser", ID: "personalized_recs_anime_series", Type: "series", Name: "Recommended Anime Series"},
}

// CatalogDefinitionByKey returns the definition for a short config key.
func CatalogDefinitionByKey(key string) (CatalogDefinition, bool) {
	for _, def := range CatalogDefinitions {
		if def.Key == key {
			return def, true
		}
	}
	return CatalogDefinition{}, false
}

// SupportedCatalogID reports whether the public catalog id is one of ours.
func SupportedCatalogID(id string) bool {
	for _, def := range CatalogDefinitions {
		if def.ID == id {
			return true
		}
	}
	return false
}

// CatalogDisplayName returns the human-readable name for a catalog id,
// falling back to the id itself.
func CatalogDisplayName(id string) string {
	for _, def := range CatalogDefinitions {
		if def.ID == id {
			return def.Name
		}
	}
	return id
}
