// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package models defines the data types that flow between pipeline stages:
// library/watch-history entries, canonical provider records, recommendation
// candidates tagged by originating source, and the display-ready catalog
// response shape.
//
// The types here are deliberately free of behavior beyond identity and
// classification helpers so that every stage (selection, fan-out, filtering,
// conversion) can pattern-match on explicit fields instead of probing
// loosely-shaped payloads.
package models
