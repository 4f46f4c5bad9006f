// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package providers holds the upstream API clients: the metadata provider
// (TMDB), the social recommendation engine (Trakt), the anime engine
// (AniList), the anime identifier bridges (ARM, PlexAniBridge), and the two
// watch-history sources (Stremio, MDBList).
//
// Every client shares the same plumbing: a per-provider rate limiter, a
// circuit breaker, HTTP 429 retry with backoff, and response caching through
// cache.Store. Lookup misses are cached negatively so dead identifiers do
// not hammer upstreams.
package providers

import "errors"

// ErrNotFound reports that an identifier could not be resolved upstream.
// Callers skip the item rather than failing the whole pipeline.
var ErrNotFound = errors.New("providers: not found")

// ErrMissingCredential reports that a provider call was attempted without
// the credential it requires.
var ErrMissingCredential = errors.New("providers: missing credential")
