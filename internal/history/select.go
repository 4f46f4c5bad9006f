// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package history

import (
	"math/rand"
	"sort"
	"time"

	"github.com/cinemind/cinemind/internal/models"
)

// maxSeeds bounds how many history items any selection can return.
const maxSeeds = 10000

// Mode selects the sampling strategy.
type Mode string

const (
	// ModeAdaptive interleaves the most recent and highest-engagement
	// titles, recency first.
	ModeAdaptive Mode = "adaptive"
	// ModeRandom samples uniformly.
	ModeRandom Mode = "random"
)

// Selection is the result of sampling a watch history.
type Selection struct {
	// Items are the chosen seeds, at most the requested limit.
	Items []models.LibraryItem

	// KnownIDs is the identifier set of the ENTIRE history (not just the
	// selection), used for seen-before filtering. It contains every raw,
	// provider-scheme, and IMDb identifier the source reported.
	KnownIDs map[string]bool
}

// Select samples up to limit seeds from the history. Items without an
// identifier are dropped; removed items stay eligible only while residual
// playback progress remains. targetType narrows by content class when set.
func Select(items []models.LibraryItem, limit int, targetType models.MediaType, mode Mode, now time.Time) Selection {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxSeeds {
		limit = maxSeeds
	}

	known := make(map[string]bool)
	for i := range items {
		if items[i].ID != "" {
			known[items[i].ID] = true
		}
		if items[i].TMDBID != "" {
			known[items[i].TMDBID] = true
		}
		if items[i].IMDBID != "" {
			known[items[i].IMDBID] = true
		}
	}

	valid := make([]models.LibraryItem, 0, len(items))
	for i := range items {
		item := items[i]
		if item.ID == "" {
			continue
		}
		if targetType != "" && item.Type != targetType {
			continue
		}
		if item.Removed && !item.State.HasHistory() {
			continue
		}
		valid = append(valid, item)
	}

	var selected []models.LibraryItem
	if mode == ModeRandom {
		selected = sampleRandom(valid, limit)
	} else {
		selected = sampleAdaptive(valid, limit, now)
	}
	return Selection{Items: selected, KnownIDs: known}
}

func sampleRandom(items []models.LibraryItem, limit int) []models.LibraryItem {
	shuffled := make([]models.LibraryItem, len(items))
	copy(shuffled, items)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > limit {
		shuffled = shuffled[:limit]
	}
	return shuffled
}

// sampleAdaptive merges two rankings of the history, one by recency and one
// by engagement score, alternating between them with recency first. Items
// at or below the score threshold are skipped; the threshold rises for very
// large requests so bulk catalogs stay signal-dense.
func sampleAdaptive(items []models.LibraryItem, limit int, now time.Time) []models.LibraryItem {
	type scored struct {
		item  models.LibraryItem
		score int
		date  int64
	}
	processed := make([]scored, len(items))
	for i := range items {
		processed[i] = scored{
			item:  items[i],
			score: Score(&items[i], now),
			date:  items[i].State.LastWatched.UnixMilli(),
		}
	}

	favorites := make([]scored, len(processed))
	copy(favorites, processed)
	sort.SliceStable(favorites, func(i, j int) bool { return favorites[i].score > favorites[j].score })

	recents := make([]scored, len(processed))
	copy(recents, processed)
	sort.SliceStable(recents, func(i, j int) bool { return recents[i].date > recents[j].date })

	threshold := 0
	if limit > 100 {
		threshold = 10
	}

	combined := make([]models.LibraryItem, 0, limit)
	seen := make(map[string]bool, limit)
	take := func(s scored) {
		if seen[s.item.ID] || s.score <= threshold {
			return
		}
		combined = append(combined, s.item)
		seen[s.item.ID] = true
	}

	for i := 0; i < len(processed); i++ {
		if len(combined) >= limit {
			break
		}
		take(recents[i])
		if len(combined) >= limit {
			break
		}
		take(favorites[i])
	}
	return combined
}
