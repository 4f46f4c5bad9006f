// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/cinemind/cinemind/internal/cache"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/history"
	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/metrics"
	"github.com/cinemind/cinemind/internal/models"
)

// refreshTimeout bounds a background regeneration; the pipeline fans out to
// rate-limited engines, so a full rebuild can legitimately take minutes.
const refreshTimeout = 5 * time.Minute

// LibrarySource fetches a user's watch history under a credential.
type LibrarySource interface {
	Library(ctx context.Context, credential string) ([]models.LibraryItem, error)
}

// Orchestrator serves catalogs stale-while-revalidate: a cached catalog past
// the staleness threshold is served immediately while one background refresh
// regenerates it. At most one refresh per cache key is in flight.
type Orchestrator struct {
	generator *Generator
	store     cache.Store
	stremio   LibrarySource
	mdblist   LibrarySource

	mu      sync.Mutex
	pending map[string]bool
}

// NewOrchestrator wires the serving layer to the pipeline, the cache, and
// the watch-history sources.
func NewOrchestrator(gen *Generator, store cache.Store, stremio, mdblist LibrarySource) *Orchestrator {
	return &Orchestrator{
		generator: gen,
		store:     store,
		stremio:   stremio,
		mdblist:   mdblist,
		pending:   make(map[string]bool),
	}
}

// cachedCatalog is the stored payload plus its generation time, which drives
// the staleness decision.
type cachedCatalog struct {
	Metas       []models.MetaItem `json:"metas"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// generation is one pipeline run plus the history-selection size, which the
// caching rules depend on.
type generation struct {
	result   *Result
	selected int
}

// Catalog returns the catalog for a request, serving from cache when
// possible. A stale hit is served as-is and refreshed in the background; a
// miss generates synchronously.
func (o *Orchestrator) Catalog(ctx context.Context, req *Request) ([]models.MetaItem, error) {
	key := o.cacheKey(req)

	var cached cachedCatalog
	if ok, err := o.store.Get(ctx, key, &cached); err == nil && ok {
		metrics.RecordCacheHit("catalog")
		freshness := "fresh"
		if time.Since(cached.GeneratedAt) > config.CatalogStaleAfter {
			freshness = "stale"
			o.refreshInBackground(req, key)
		}
		metrics.RecordCatalogServed(req.Definition.ID, freshness)
		return o.present(req, cached.Metas), nil
	}
	metrics.RecordCacheMiss("catalog")

	gen, err := o.generate(ctx, req, "request")
	if err != nil {
		return nil, err
	}

	// A user without history and without gap filling gets an empty catalog,
	// deliberately uncached: their first watched title should take effect
	// on the next request.
	if gen.selected == 0 && !req.fillAllowed() {
		metrics.RecordCatalogServed(req.Definition.ID, "empty")
		return []models.MetaItem{}, nil
	}

	o.cacheResult(ctx, key, gen)
	metrics.RecordCatalogServed(req.Definition.ID, "generated")
	return o.present(req, gen.result.Metas), nil
}

// cacheKey derives the cache slot from the source, a hashed credential, the
// catalog, the genre filter, and the content-affecting settings digest.
func (o *Orchestrator) cacheKey(req *Request) string {
	genre := req.Genre
	if genre == "" {
		genre = "all"
	}
	return cache.CatalogKey(req.Config.LibrarySource, o.credential(req.Config),
		req.Definition.ID, genre, req.Config.SettingsHash())
}

func (o *Orchestrator) credential(cfg *config.CatalogConfig) string {
	if cfg.LibrarySource == "mdblist" {
		return cfg.MDBListAPIKey
	}
	return cfg.AuthKey
}

// generate fetches and samples the watch history, then runs the pipeline.
func (o *Orchestrator) generate(ctx context.Context, req *Request, trigger string) (*generation, error) {
	start := time.Now()
	cfg := req.Config

	source := o.stremio
	if cfg.LibrarySource == "mdblist" {
		source = o.mdblist
	}
	// A library-source failure degrades to an empty selection; the pipeline
	// continues into gap fill or serves an empty catalog.
	items, err := source.Library(ctx, o.credential(cfg))
	if err != nil {
		logging.Warn().Err(err).
			Str("source", cfg.LibrarySource).
			Str("catalog", req.Definition.ID).
			Msg("library fetch failed")
		items = nil
	}

	mode := history.ModeAdaptive
	if cfg.InputMode == "random" {
		mode = history.ModeRandom
	}
	sel := history.Select(items, effectiveLimit(req), req.MediaType(), mode, time.Now())

	result, err := o.generator.Generate(ctx, req, sel.Items, sel.KnownIDs)
	if err != nil {
		metrics.RecordCatalogGeneration(req.Definition.ID, trigger, time.Since(start), 0, err)
		return nil, err
	}

	metrics.RecordCatalogGeneration(req.Definition.ID, trigger, time.Since(start), len(result.Metas), nil)
	return &generation{result: result, selected: len(sel.Items)}, nil
}

// effectiveLimit adapts the configured seed count to the catalog surface:
// genre-filtered requests need a wider net, anime catalogs scan the whole
// history for the few anime titles in it, and crew catalogs stay narrow
// because every seed costs several person lookups.
func effectiveLimit(req *Request) int {
	limit := req.Config.SourceCount
	if req.Genre != "" && limit < 20 {
		limit = 20
	}
	if req.Anime() {
		limit = 10000
	}
	if req.Crew() && limit > 10 {
		limit = 10
	}
	return limit
}

// refreshInBackground starts one regeneration for a stale key unless one is
// already pending.
func (o *Orchestrator) refreshInBackground(req *Request, key string) {
	o.mu.Lock()
	if o.pending[key] {
		o.mu.Unlock()
		return
	}
	o.pending[key] = true
	o.mu.Unlock()
	metrics.PendingRefreshes.Inc()

	go func() {
		defer func() {
			o.mu.Lock()
			delete(o.pending, key)
			o.mu.Unlock()
			metrics.PendingRefreshes.Dec()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		gen, err := o.generate(ctx, req, "refresh")
		if err != nil {
			logging.Warn().Err(err).Str("catalog", req.Definition.ID).Msg("background refresh failed")
			return
		}
		// Never replace a populated catalog with one built from an empty
		// selection; a transient library-source hiccup would wipe it.
		if gen.selected == 0 {
			logging.Debug().Str("catalog", req.Definition.ID).Msg("refresh skipped, empty selection")
			return
		}
		o.cacheResult(ctx, key, gen)
	}()
}

func (o *Orchestrator) cacheResult(ctx context.Context, key string, gen *generation) {
	payload := cachedCatalog{Metas: gen.result.Metas, GeneratedAt: time.Now()}
	if err := o.store.Set(ctx, key, payload, config.TTLCatalog); err != nil {
		logging.Warn().Err(err).Msg("catalog cache write failed")
	}
}

// present prepares cached metas for serving. Random ordering reshuffles on
// every request so a cached catalog does not freeze into one permutation.
func (o *Orchestrator) present(req *Request, metas []models.MetaItem) []models.MetaItem {
	if req.Config.SortOrder != "random" {
		return metas
	}
	out := make([]models.MetaItem, len(metas))
	copy(out, metas)
	shuffleMetas(out)
	return out
}
