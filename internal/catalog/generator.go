// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/models"
	"github.com/cinemind/cinemind/internal/providers"
)

// Generator runs the recommendation pipeline for one catalog request. It is
// stateless; every call carries its own seeds and seen-before set.
type Generator struct {
	metadata MetadataProvider
	social   SocialProvider
	anime    AnimeProvider
	bridge   IDBridge
}

// NewGenerator wires the pipeline to its engines.
func NewGenerator(metadata MetadataProvider, social SocialProvider, anime AnimeProvider, bridge IDBridge) *Generator {
	return &Generator{metadata: metadata, social: social, anime: anime, bridge: bridge}
}

// Result is one generated catalog plus the counters the caller reports.
type Result struct {
	Metas []models.MetaItem

	// Seeded is how many history items survived resolution and drove the
	// fan-out; Filled is how many items gap filling contributed.
	Seeded int
	Filled int
}

// seedItem is a resolved history title ready for fan-out. AniListID is set
// only for anime catalogs, where it keys the recommendation lookup.
type seedItem struct {
	resolved  *models.CanonicalItem
	anilistID int
}

// Generate runs the full pipeline: resolve seeds, fan out to the configured
// engines, merge and filter in two passes around candidate resolution, fill
// gaps, convert to the target identifier scheme, and sort.
func (g *Generator) Generate(ctx context.Context, req *Request, seeds []models.LibraryItem, knownIDs map[string]bool) (*Result, error) {
	f := newFilter(req, knownIDs)

	resolved, err := g.resolveSeeds(ctx, req, seeds)
	if err != nil {
		return nil, err
	}
	seedItems, err := g.classifySeeds(ctx, req, resolved)
	if err != nil {
		return nil, err
	}

	candidates, err := g.fanOut(ctx, req, seedItems)
	if err != nil {
		return nil, err
	}

	// First pass: dedup and validate on raw list metadata. Invalid items do
	// not claim their key, so a later valid duplicate can still enter.
	seen := make(map[string]bool)
	raw := make([]models.Candidate, 0, len(candidates))
	for i := range candidates {
		key := candidates[i].Key()
		if key == "" || seen[key] {
			continue
		}
		if f.firstPass(&candidates[i]) {
			seen[key] = true
			raw = append(raw, candidates[i])
		}
	}

	enriched, err := g.resolveCandidates(ctx, req, raw)
	if err != nil {
		return nil, err
	}

	final := make([]models.Candidate, 0, len(enriched))
	for i := range enriched {
		if f.finalPass(&enriched[i]) {
			final = append(final, enriched[i])
		}
	}

	filled := 0
	if !req.Crew() {
		final, filled = g.fillGaps(ctx, req, f, final, len(seeds) > 0)
	}

	if len(final) > maxCatalogItems {
		final = final[:maxCatalogItems]
	}
	final, err = g.convertTargetIDs(ctx, req, final)
	if err != nil {
		return nil, err
	}
	sortCandidates(final, req.Config.SortOrder)

	metas := make([]models.MetaItem, 0, len(final))
	for i := range final {
		metas = append(metas, models.MetaFromCandidate(&final[i], req.MediaType(), req.Config.RPDBKey))
	}

	logging.Debug().
		Str("catalog", req.Definition.ID).
		Int("seeds", len(seedItems)).
		Int("candidates", len(candidates)).
		Int("after_first_pass", len(raw)).
		Int("filled", filled).
		Int("final", len(metas)).
		Msg("catalog generated")

	return &Result{Metas: metas, Seeded: len(seedItems), Filled: filled}, nil
}

// expandFor picks the detail expansions seed resolution should fetch, so the
// fan-out can read recommendations and credits straight off the seed record.
func expandFor(req *Request) models.Expand {
	cfg := req.Config
	var e models.Expand

	if req.Crew() {
		e.Credits = true
		e.ExternalIDs = cfg.HideWatched
		return e
	}
	if req.Anime() {
		// The anime engine keys on its own ids; seeds only need the
		// metadata provider's recommendations when it is the engine.
		e.Recommendations = cfg.AnimeEngine == "tmdb"
		return e
	}

	e.Recommendations = cfg.RecEngine != "trakt"
	e.ExternalIDs = cfg.RecEngine != "tmdb" || cfg.HideWatched
	return e
}

// resolveSeeds maps raw history identifiers to canonical records, dropping
// items that fail to resolve or resolve to the wrong content class.
func (g *Generator) resolveSeeds(ctx context.Context, req *Request, seeds []models.LibraryItem) ([]*models.CanonicalItem, error) {
	expand := expandFor(req)
	catalogType := req.MediaType()
	apiKey := req.Config.TMDBAPIKey

	return mapBatches(ctx, seeds, seedBatchSize, 0, func(ctx context.Context, item models.LibraryItem) (*models.CanonicalItem, error) {
		resolved, err := g.metadata.Resolve(ctx, apiKey, item.ID, item.Type, expand)
		if err != nil {
			return nil, err
		}
		if resolved.Type != models.MediaTypeUnknown && resolved.Type != catalogType {
			return nil, fmt.Errorf("seed %s: type %s does not match catalog", item.ID, resolved.Type)
		}
		return resolved, nil
	})
}

// classifySeeds turns resolved history into fan-out seeds. Anime catalogs
// keep only titles known to the anime database, deduplicated by anime id;
// other catalogs drop anime titles so the two surfaces never overlap.
func (g *Generator) classifySeeds(ctx context.Context, req *Request, resolved []*models.CanonicalItem) ([]seedItem, error) {
	if !req.Anime() {
		out := make([]seedItem, 0, len(resolved))
		for _, item := range resolved {
			if !item.IsAnime() {
				out = append(out, seedItem{resolved: item})
			}
		}
		return out, nil
	}

	checked, err := mapBatches(ctx, resolved, seedBatchSize, 0, func(ctx context.Context, item *models.CanonicalItem) (seedItem, error) {
		ref := providers.TitleRef{TMDBID: item.ID, Type: item.Type}
		if item.External != nil {
			ref.IMDBID = item.External.IMDBID
		}
		id, err := g.bridge.AniListIDFor(ctx, ref)
		if err != nil {
			return seedItem{}, err
		}
		if id == 0 {
			return seedItem{}, fmt.Errorf("seed %d: not an anime title", item.ID)
		}
		return seedItem{resolved: item, anilistID: id}, nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(checked))
	out := make([]seedItem, 0, len(checked))
	for _, s := range checked {
		if seen[s.anilistID] {
			continue
		}
		seen[s.anilistID] = true
		out = append(out, s)
	}
	return out, nil
}

// fanOut collects recommendation candidates from every seed under the
// configured strategy and engines.
func (g *Generator) fanOut(ctx context.Context, req *Request, seeds []seedItem) ([]models.Candidate, error) {
	batch := seedBatchSize
	var delay time.Duration
	if req.Anime() {
		batch = animeBatchSize
		delay = 500 * time.Millisecond
	}

	lists, err := mapBatches(ctx, seeds, batch, delay, func(ctx context.Context, s seedItem) ([]models.Candidate, error) {
		if req.Crew() {
			return g.crewWorks(ctx, req, s.resolved)
		}
		return g.contentRecommendations(ctx, req, s)
	})
	if err != nil {
		return nil, err
	}

	var out []models.Candidate
	for _, l := range lists {
		out = append(out, l...)
	}
	return out, nil
}

// contentRecommendations fans one seed out to the content-similarity engines
// the configuration selects. A failing engine contributes nothing rather
// than failing the seed.
func (g *Generator) contentRecommendations(ctx context.Context, req *Request, s seedItem) ([]models.Candidate, error) {
	cfg := req.Config

	if req.Anime() {
		if cfg.AnimeEngine == "tmdb" {
			return s.resolved.Recommendations, nil
		}
		return g.anime.Recommendations(ctx, s.anilistID)
	}

	var out []models.Candidate
	if cfg.RecEngine != "trakt" {
		out = append(out, s.resolved.Recommendations...)
	}
	if cfg.RecEngine != "tmdb" {
		imdbID := ""
		if s.resolved.External != nil {
			imdbID = s.resolved.External.IMDBID
		}
		recs, err := g.social.Related(ctx, cfg.TraktClientID, s.resolved.ID, imdbID, req.MediaType())
		if err != nil {
			logging.Debug().Err(err).Int("seed", s.resolved.ID).Msg("social recommendations failed")
		} else {
			out = append(out, recs...)
		}
	}
	return out, nil
}

// crewWorks recommends by shared people: the seed's director (movies only)
// and its top-billed cast, each contributing their most-voted works.
func (g *Generator) crewWorks(ctx context.Context, req *Request, item *models.CanonicalItem) ([]models.Candidate, error) {
	if item.Credits == nil {
		return nil, nil
	}

	var people []int
	if req.MediaType() == models.MediaTypeMovie {
		for _, p := range item.Credits.Crew {
			if p.Job == "Director" {
				people = append(people, p.ID)
				break
			}
		}
	}
	for i, p := range item.Credits.Cast {
		if i >= topCastPerSeed {
			break
		}
		people = append(people, p.ID)
	}

	var out []models.Candidate
	for _, personID := range people {
		works, err := g.metadata.WorksByPerson(ctx, req.Config.TMDBAPIKey, personID, req.MediaType(), req.GenreID(), req.Config.MinRating)
		if err != nil {
			logging.Debug().Err(err).Int("person", personID).Msg("person works lookup failed")
			continue
		}
		out = append(out, works...)
	}
	return out, nil
}

// resolveCandidates enriches the first-pass survivors. External-engine
// candidates are resolved to full canonical records; metadata candidates
// fetch their alternate-scheme ids when seen-before filtering needs them.
func (g *Generator) resolveCandidates(ctx context.Context, req *Request, items []models.Candidate) ([]models.Candidate, error) {
	cfg := req.Config
	catalogType := req.MediaType()

	return mapBatches(ctx, items, resolveBatchSize, 0, func(ctx context.Context, c models.Candidate) (models.Candidate, error) {
		if c.Source.External() {
			rawID := c.RawID
			if !strings.HasPrefix(rawID, "mal:") {
				rawID = fmt.Sprintf("tmdb:%d", c.TMDBID)
			}
			details, err := g.metadata.Resolve(ctx, cfg.TMDBAPIKey, rawID, catalogType, models.Expand{ExternalIDs: cfg.HideWatched})
			if err != nil {
				return models.Candidate{}, err
			}
			rc := models.FromCanonical(details, c.Source)
			if details.External != nil {
				rc.IMDBID = details.External.IMDBID
			}
			return rc, nil
		}

		needsExternal := cfg.HideWatched &&
			((catalogType == models.MediaTypeSeries && (c.External == nil || c.External.TVDBID == 0)) ||
				(catalogType == models.MediaTypeMovie && c.External == nil && c.IMDBID == ""))
		if needsExternal {
			details, err := g.metadata.Resolve(ctx, cfg.TMDBAPIKey, fmt.Sprintf("tmdb:%d", c.TMDBID), catalogType, models.Expand{ExternalIDs: true})
			if err == nil && details.External != nil {
				c.External = details.External
				c.IMDBID = details.External.IMDBID
			}
		}
		return c, nil
	})
}
