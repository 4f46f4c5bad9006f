// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/models"
)

// filter holds the per-request state the two validation passes share: the
// user's settings, the seen-before identifier set, and the catalog's
// excluded-genre set.
type filter struct {
	req      *Request
	cfg      *config.CatalogConfig
	known    map[string]bool
	excluded map[string]bool
	genreID  int
}

func newFilter(req *Request, known map[string]bool) *filter {
	f := &filter{
		req:      req,
		cfg:      req.Config,
		known:    known,
		excluded: make(map[string]bool),
		genreID:  req.GenreID(),
	}
	if entry, ok := req.Config.CatalogEntryFor(req.Definition.ID); ok {
		for _, g := range entry.ExcludedGenres {
			f.excluded[g] = true
		}
	}
	return f
}

// excludedGenre matches a candidate against the catalog's excluded genres by
// provider genre id, by genre name, and by free-text tag, since the engines
// disagree on which of the three they supply.
func (f *filter) excludedGenre(c *models.Candidate) bool {
	if len(f.excluded) == 0 {
		return false
	}
	for _, id := range c.GenreIDs {
		if name, ok := config.GenreNameByID[id]; ok && f.excluded[name] {
			return true
		}
	}
	for _, name := range c.GenreNames {
		if f.excluded[name] {
			return true
		}
	}
	for _, tag := range c.Tags {
		if f.excluded[tag] {
			return true
		}
	}
	return false
}

// seenBefore checks every identifier form a candidate can carry against the
// user's library id set.
func (f *filter) seenBefore(c *models.Candidate) bool {
	if c.RawID != "" && strings.Contains(c.RawID, ":") && f.known[c.RawID] {
		return true
	}
	if c.TMDBID != 0 && f.known["tmdb:"+strconv.Itoa(c.TMDBID)] {
		return true
	}
	if c.IMDBID != "" && f.known[c.IMDBID] {
		return true
	}
	if c.External != nil {
		if c.External.IMDBID != "" && f.known[c.External.IMDBID] {
			return true
		}
		if c.External.TVDBID != 0 && f.known[fmt.Sprintf("tvdb:%d", c.External.TVDBID)] {
			return true
		}
	}
	return false
}

// firstPass validates a raw candidate before resolution. Candidates from
// external engines carry only an id at this point, so the metadata-dependent
// checks are deferred to the final pass for them.
func (f *filter) firstPass(c *models.Candidate) bool {
	if c.Key() == "" {
		return false
	}
	if f.excludedGenre(c) {
		return false
	}

	if !c.Source.External() {
		if f.req.Anime() != c.IsAnime() {
			return false
		}
		if !f.matchesDetailFilters(c) {
			return false
		}
		if !f.req.Anime() && f.cfg.Language != "" && f.cfg.Language != "any" &&
			c.OriginalLanguage != f.cfg.Language {
			return false
		}
	}

	return !f.cfg.HideWatched || !f.seenBefore(c)
}

// finalPass re-validates after resolution, when every candidate carries full
// metadata. An external-engine candidate in an anime catalog counts as anime
// even when the resolved record does not classify as one; the engine itself
// is the classification.
func (f *filter) finalPass(c *models.Candidate) bool {
	if f.excludedGenre(c) {
		return false
	}
	if f.cfg.HideWatched && f.seenBefore(c) {
		return false
	}

	anime := c.IsAnime() || (c.Source.External() && f.req.Anime())
	if f.req.Anime() != anime {
		return false
	}

	return f.matchesDetailFilters(c)
}

// matchesDetailFilters applies the genre, rating, and era constraints shared
// by both passes.
func (f *filter) matchesDetailFilters(c *models.Candidate) bool {
	if f.genreID != 0 && !slices.Contains(c.GenreIDs, f.genreID) {
		return false
	}
	if f.cfg.MinRating > 0 && c.VoteAverage < f.cfg.MinRating {
		return false
	}
	return eraAllows(c.ReleaseOrAirDate(), f.cfg.Era)
}

// eraAllows reports whether a release date falls inside the configured era.
// The option may be a comma-separated list of eras. A date without a
// parseable year passes every era: unreleased and undated titles are not
// excludable by year.
func eraAllows(date, era string) bool {
	if era == "" || era == "all" {
		return true
	}
	yearStr, _, _ := strings.Cut(date, "-")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return true
	}
	for _, opt := range strings.Split(era, ",") {
		switch strings.TrimSpace(opt) {
		case "all":
			return true
		case "modern":
			if year >= 2010 {
				return true
			}
		case "2000s":
			if year >= 2000 && year < 2010 {
				return true
			}
		case "90s":
			if year >= 1990 && year < 2000 {
				return true
			}
		case "classic":
			if year < 1990 {
				return true
			}
		}
	}
	return false
}
