// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package catalog

import (
	"testing"

	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/models"
)

func testRequest(key string, mutate func(*config.CatalogConfig)) *Request {
	def, ok := config.CatalogDefinitionByKey(key)
	if !ok {
		panic("unknown catalog key " + key)
	}
	cfg := config.DefaultCatalogConfig()
	cfg.LibrarySource = "stremio"
	cfg.AuthKey = "test-auth-key"
	cfg.TMDBAPIKey = "test-tmdb-key"
	if mutate != nil {
		mutate(&cfg)
	}
	return &Request{Config: &cfg, Definition: def}
}

func TestEraAllows(t *testing.T) {
	tests := []struct {
		date string
		era  string
		want bool
	}{
		{"2023-05-01", "all", true},
		{"2023-05-01", "", true},
		{"2023-05-01", "modern", true},
		{"2009-12-31", "modern", false},
		{"2005-01-01", "2000s", true},
		{"2010-01-01", "2000s", false},
		{"1995-06-15", "90s", true},
		{"1989-01-01", "90s", false},
		{"1989-01-01", "classic", true},
		{"1990-01-01", "classic", false},
		{"1985-01-01", "90s,classic", true},
		{"1995-01-01", "90s,classic", true},
		{"2005-01-01", "90s,classic", false},
		{"", "modern", true},
		{"unknown", "modern", true},
		{"", "classic", true},
		{"", "all", true},
	}
	for _, tt := range tests {
		if got := eraAllows(tt.date, tt.era); got != tt.want {
			t.Errorf("eraAllows(%q, %q) = %v, want %v", tt.date, tt.era, got, tt.want)
		}
	}
}

func TestExcludedGenreMatching(t *testing.T) {
	req := testRequest("std_mov", func(cfg *config.CatalogConfig) {
		cfg.CatalogOrder = []config.CatalogEntry{{
			ID:             "personalized_recs_movies",
			ExcludedGenres: []string{"Horror", "Ecchi"},
		}}
	})
	f := newFilter(req, nil)

	tests := []struct {
		name string
		c    models.Candidate
		want bool
	}{
		{"by genre id", models.Candidate{GenreIDs: []int{27}}, true},
		{"by genre name", models.Candidate{GenreNames: []string{"Horror"}}, true},
		{"by tag", models.Candidate{Tags: []string{"Ecchi"}}, true},
		{"clean", models.Candidate{GenreIDs: []int{18}, GenreNames: []string{"Drama"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.excludedGenre(&tt.c); got != tt.want {
				t.Errorf("excludedGenre = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeenBeforeMatchesEveryIDForm(t *testing.T) {
	known := map[string]bool{
		"mal:77":    true,
		"tmdb:550":  true,
		"tt0137523": true,
		"tvdb:8888": true,
	}
	req := testRequest("std_mov", func(cfg *config.CatalogConfig) { cfg.HideWatched = true })
	f := newFilter(req, known)

	tests := []struct {
		name string
		c    models.Candidate
		want bool
	}{
		{"raw scheme id", models.Candidate{RawID: "mal:77"}, true},
		{"provider id", models.Candidate{TMDBID: 550}, true},
		{"direct imdb", models.Candidate{TMDBID: 1, IMDBID: "tt0137523"}, true},
		{"external imdb", models.Candidate{TMDBID: 1, External: &models.ExternalIDs{IMDBID: "tt0137523"}}, true},
		{"external tvdb", models.Candidate{TMDBID: 1, External: &models.ExternalIDs{TVDBID: 8888}}, true},
		{"unseen", models.Candidate{TMDBID: 2, IMDBID: "tt9999999"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.seenBefore(&tt.c); got != tt.want {
				t.Errorf("seenBefore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFirstPassExternalSkipsDetailFilters(t *testing.T) {
	req := testRequest("std_mov", func(cfg *config.CatalogConfig) {
		cfg.MinRating = 7
		cfg.Era = "modern"
		cfg.Language = "en"
	})
	f := newFilter(req, nil)

	// An external candidate carries no metadata yet; it must survive the
	// first pass even though every detail filter would reject its zero
	// values.
	external := models.Candidate{Source: models.SourceSocial, TMDBID: 42}
	if !f.firstPass(&external) {
		t.Error("external candidate rejected before resolution")
	}

	// The same zero-metadata shape from the metadata engine is rejected.
	internal := models.Candidate{Source: models.SourceMetadata, TMDBID: 42}
	if f.firstPass(&internal) {
		t.Error("metadata candidate passed despite failing detail filters")
	}
}

func TestFirstPassAnimeClassification(t *testing.T) {
	anime := models.Candidate{
		Source: models.SourceMetadata, TMDBID: 1,
		GenreIDs: []int{models.AnimationGenreID}, OriginalLanguage: "ja",
		VoteAverage: 8, ReleaseDate: "2020-01-01",
	}
	western := models.Candidate{
		Source: models.SourceMetadata, TMDBID: 2,
		GenreIDs: []int{models.AnimationGenreID}, OriginalLanguage: "en",
		VoteAverage: 8, ReleaseDate: "2020-01-01",
	}

	std := newFilter(testRequest("std_mov", nil), nil)
	if std.firstPass(&anime) {
		t.Error("anime title accepted into a standard catalog")
	}
	if !std.firstPass(&western) {
		t.Error("western animation rejected from a standard catalog")
	}

	ani := newFilter(testRequest("ani_mov", nil), nil)
	if !ani.firstPass(&anime) {
		t.Error("anime title rejected from the anime catalog")
	}
	if ani.firstPass(&western) {
		t.Error("western animation accepted into the anime catalog")
	}
}

func TestFinalPassExternalCountsAsAnimeInAnimeCatalog(t *testing.T) {
	f := newFilter(testRequest("ani_ser", nil), nil)

	// Resolved anime-engine candidates often lack the Animation genre id
	// on the provider side; the engine membership is the classification.
	c := models.Candidate{
		Source: models.SourceAnime, TMDBID: 400,
		GenreIDs: []int{18}, OriginalLanguage: "ja",
		VoteAverage: 8, FirstAirDate: "2021-04-01",
	}
	if !f.finalPass(&c) {
		t.Error("anime-engine candidate rejected in final pass")
	}

	c.Source = models.SourceMetadata
	if f.finalPass(&c) {
		t.Error("non-anime metadata candidate accepted into the anime catalog")
	}
}

func TestFirstPassLanguageFilter(t *testing.T) {
	req := testRequest("std_mov", func(cfg *config.CatalogConfig) { cfg.Language = "fr" })
	f := newFilter(req, nil)

	fr := models.Candidate{Source: models.SourceMetadata, TMDBID: 1, OriginalLanguage: "fr", VoteAverage: 7, ReleaseDate: "2020-01-01"}
	en := models.Candidate{Source: models.SourceMetadata, TMDBID: 2, OriginalLanguage: "en", VoteAverage: 7, ReleaseDate: "2020-01-01"}

	if !f.firstPass(&fr) {
		t.Error("matching language rejected")
	}
	if f.firstPass(&en) {
		t.Error("non-matching language accepted")
	}
}

func TestSortCandidates(t *testing.T) {
	items := func() []models.Candidate {
		return []models.Candidate{
			{TMDBID: 1, VoteAverage: 6.1, Popularity: 300, ReleaseDate: "2024-01-01"},
			{TMDBID: 2, VoteAverage: 8.7, Popularity: 100, ReleaseDate: "2019-06-01"},
			{TMDBID: 3, VoteAverage: 7.4, Popularity: 200, ReleaseDate: "2022-03-01"},
		}
	}

	byRating := items()
	sortCandidates(byRating, "rating_desc")
	if byRating[0].TMDBID != 2 || byRating[2].TMDBID != 1 {
		t.Errorf("rating_desc order = %d,%d,%d", byRating[0].TMDBID, byRating[1].TMDBID, byRating[2].TMDBID)
	}

	byDate := items()
	sortCandidates(byDate, "date_desc")
	if byDate[0].TMDBID != 1 || byDate[2].TMDBID != 2 {
		t.Errorf("date_desc order = %d,%d,%d", byDate[0].TMDBID, byDate[1].TMDBID, byDate[2].TMDBID)
	}

	byPopularity := items()
	sortCandidates(byPopularity, "popularity_desc")
	if byPopularity[0].TMDBID != 1 || byPopularity[2].TMDBID != 2 {
		t.Errorf("popularity_desc order = %d,%d,%d", byPopularity[0].TMDBID, byPopularity[1].TMDBID, byPopularity[2].TMDBID)
	}

	shuffled := items()
	sortCandidates(shuffled, "random")
	if len(shuffled) != 3 {
		t.Errorf("random sort changed length to %d", len(shuffled))
	}
}
