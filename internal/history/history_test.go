// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/cinemind/cinemind/internal/models"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func movie(name string, state models.PlaybackState) models.LibraryItem {
	return models.LibraryItem{ID: "tt-" + name, Type: models.MediaTypeMovie, Name: name, State: state}
}

func series(name string, season, episode int, lastWatched time.Time) models.LibraryItem {
	return models.LibraryItem{
		ID:   "tt-" + name,
		Type: models.MediaTypeSeries,
		Name: name,
		State: models.PlaybackState{
			LastWatched: lastWatched,
			Season:      season,
			Episode:     episode,
		},
	}
}

func TestScoreMovies(t *testing.T) {
	weekAgo := now.AddDate(0, 0, -7)

	tests := []struct {
		name  string
		state models.PlaybackState
		want  int
	}{
		{"flagged watched", models.PlaybackState{LastWatched: weekAgo, FlaggedAsWatched: true}, 50},
		{"nearly finished", models.PlaybackState{LastWatched: weekAgo, TimeOffset: 95, Duration: 100}, 50},
		{"half watched", models.PlaybackState{LastWatched: weekAgo, TimeOffset: 50, Duration: 100}, 15},
		{"barely started", models.PlaybackState{LastWatched: weekAgo, TimeOffset: 5, Duration: 100}, 0},
		{"no playback at all", models.PlaybackState{LastWatched: weekAgo}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := movie(tt.name, tt.state)
			if got := Score(&item, now); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreSeries(t *testing.T) {
	weekAgo := now.AddDate(0, 0, -7)

	tests := []struct {
		name    string
		season  int
		episode int
		want    int
	}{
		{"deep in season 3", 3, 4, 48},  // (3-1)*20 + 4*2
		{"season 2 start", 2, 1, 22},    // 20 + 2
		{"late season 1", 1, 8, 20},
		{"mid season 1", 1, 3, 10},
		{"first episode", 1, 1, 1},
		{"no progress", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := series(tt.name, tt.season, tt.episode, weekAgo)
			if got := Score(&item, now); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreRecencyBonus(t *testing.T) {
	yesterday := now.AddDate(0, 0, -1)

	// Light engagement watched yesterday gets the bonus.
	light := series("fresh", 1, 3, yesterday)
	if got := Score(&light, now); got != 25 {
		t.Errorf("light recent score = %d, want 25 (10 + 15 bonus)", got)
	}

	// Heavy engagement does not; it is already above the ceiling.
	heavy := movie("finished", models.PlaybackState{LastWatched: yesterday, FlaggedAsWatched: true})
	if got := Score(&heavy, now); got != 50 {
		t.Errorf("heavy recent score = %d, want 50", got)
	}
}

func TestScoreDecay(t *testing.T) {
	// 90 days -> 3 points of decay.
	old := movie("old", models.PlaybackState{LastWatched: now.AddDate(0, 0, -90), FlaggedAsWatched: true})
	if got := Score(&old, now); got != 47 {
		t.Errorf("score = %d, want 47", got)
	}

	// Decay caps at 20 even for ancient items.
	ancient := movie("ancient", models.PlaybackState{LastWatched: now.AddDate(-5, 0, 0), FlaggedAsWatched: true})
	if got := Score(&ancient, now); got != 30 {
		t.Errorf("score = %d, want 30", got)
	}

	// The floor is zero.
	forgotten := series("forgotten", 1, 1, now.AddDate(-5, 0, 0))
	if got := Score(&forgotten, now); got != 0 {
		t.Errorf("score = %d, want 0", got)
	}
}

func TestSelectFiltersInvalid(t *testing.T) {
	items := []models.LibraryItem{
		movie("keep", models.PlaybackState{LastWatched: now, FlaggedAsWatched: true}),
		{Type: models.MediaTypeMovie, Name: "no id", State: models.PlaybackState{FlaggedAsWatched: true}},
		series("wrong type", 2, 1, now),
		{ID: "tt-removed-dead", Type: models.MediaTypeMovie, Name: "removed dead", Removed: true},
		{ID: "tt-removed-live", Type: models.MediaTypeMovie, Name: "removed live", Removed: true,
			State: models.PlaybackState{LastWatched: now, TimeOffset: 50, Duration: 100}},
	}

	sel := Select(items, 20, models.MediaTypeMovie, ModeAdaptive, now)

	got := make(map[string]bool)
	for _, item := range sel.Items {
		got[item.ID] = true
	}
	if !got["tt-keep"] {
		t.Error("valid item missing")
	}
	if !got["tt-removed-live"] {
		t.Error("removed item with residual progress should stay eligible")
	}
	if got["tt-removed-dead"] {
		t.Error("removed item without history selected")
	}
	if got["tt-wrong type"] {
		t.Error("series selected for movie catalog")
	}
}

func TestSelectKnownIDsCoverWholeHistory(t *testing.T) {
	items := []models.LibraryItem{
		{ID: "tt0137523", TMDBID: "tmdb:550", IMDBID: "tt0137523", Type: models.MediaTypeMovie, Name: "Fight Club",
			State: models.PlaybackState{LastWatched: now, FlaggedAsWatched: true}},
		series("other-type", 2, 1, now),
	}

	sel := Select(items, 20, models.MediaTypeMovie, ModeAdaptive, now)

	// The series is filtered out of Items but its id stays known.
	for _, id := range []string{"tt0137523", "tmdb:550", "tt-other-type"} {
		if !sel.KnownIDs[id] {
			t.Errorf("KnownIDs missing %q", id)
		}
	}
}

func TestSelectAdaptiveInterleavesRecencyFirst(t *testing.T) {
	items := []models.LibraryItem{
		// Highest score, watched long ago.
		series("favorite", 5, 10, now.AddDate(0, 0, -20)),
		// Low score, watched just now.
		series("recent", 1, 3, now.Add(-time.Hour)),
		// Middle of both rankings.
		series("middle", 2, 2, now.AddDate(0, 0, -5)),
	}

	sel := Select(items, 2, "", ModeAdaptive, now)
	if len(sel.Items) != 2 {
		t.Fatalf("len = %d, want 2", len(sel.Items))
	}
	if sel.Items[0].ID != "tt-recent" {
		t.Errorf("first = %s, want tt-recent (recency rank leads)", sel.Items[0].ID)
	}
	if sel.Items[1].ID != "tt-favorite" {
		t.Errorf("second = %s, want tt-favorite", sel.Items[1].ID)
	}
}

func TestSelectAdaptiveThresholdForLargeRequests(t *testing.T) {
	items := make([]models.LibraryItem, 0, 150)
	for i := 0; i < 150; i++ {
		// Score 1 (+15 recency on none; watched 10 days ago so no bonus).
		items = append(items, series(fmt.Sprintf("weak-%d", i), 1, 1, now.AddDate(0, 0, -10)))
	}
	items = append(items, series("strong", 3, 1, now.AddDate(0, 0, -10)))

	sel := Select(items, 120, "", ModeAdaptive, now)

	// With limit > 100 the threshold is 10: every score-1 item drops out.
	if len(sel.Items) != 1 || sel.Items[0].ID != "tt-strong" {
		t.Errorf("items = %d (first %v), want only tt-strong",
			len(sel.Items), sel.Items)
	}
}

func TestSelectRandomRespectsLimit(t *testing.T) {
	items := make([]models.LibraryItem, 0, 50)
	for i := 0; i < 50; i++ {
		items = append(items, movie(fmt.Sprintf("m%d", i), models.PlaybackState{LastWatched: now, FlaggedAsWatched: true}))
	}

	sel := Select(items, 10, models.MediaTypeMovie, ModeRandom, now)
	if len(sel.Items) != 10 {
		t.Errorf("len = %d, want 10", len(sel.Items))
	}

	seen := make(map[string]bool)
	for _, item := range sel.Items {
		if seen[item.ID] {
			t.Errorf("duplicate %s in random selection", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestSelectDefaultsAndBounds(t *testing.T) {
	items := []models.LibraryItem{
		movie("a", models.PlaybackState{LastWatched: now, FlaggedAsWatched: true}),
	}

	sel := Select(items, 0, "", ModeAdaptive, now)
	if len(sel.Items) != 1 {
		t.Errorf("zero limit should default, got %d items", len(sel.Items))
	}
}
