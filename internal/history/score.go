// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package history turns a raw watch history into pipeline seeds: it scores
// engagement per item and samples the most promising titles under the
// configured input mode.
package history

import (
	"math"
	"time"

	"github.com/cinemind/cinemind/internal/models"
)

// Scoring constants. Movies score on completion, series on watch depth;
// both get a recency bonus for light engagement and a monthly decay.
const (
	movieWatchedScore   = 50
	movieNearDoneScore  = 50
	moviePartialScore   = 15
	nearDoneProgress    = 0.9
	partialProgress     = 0.15
	seasonWeight        = 20
	episodeWeight       = 2
	deepSeason1Score    = 20
	midSeason1Score     = 10
	earlySeason1Score   = 1
	recencyBonus        = 15
	recencyBonusCeiling = 30
	recencyWindowDays   = 3
	decayPerMonth       = 1
	decayCap            = 20
)

// Score computes the engagement score of a library item at the given time.
// The score never goes below zero.
func Score(item *models.LibraryItem, now time.Time) int {
	state := item.State
	daysSinceWatch := now.Sub(state.LastWatched).Hours() / 24

	score := 0
	if item.Name != "" && state.Season == 0 {
		// Movie path: explicit watched flag wins, then completion.
		switch {
		case state.FlaggedAsWatched:
			score = movieWatchedScore
		case state.TimeOffset > 0 && state.Duration > 0:
			progress := state.Progress()
			if progress > nearDoneProgress {
				score = movieNearDoneScore
			} else if progress > partialProgress {
				score = moviePartialScore
			}
		}
	} else {
		// Series path: deeper seasons dominate.
		season, episode := state.Season, state.Episode
		switch {
		case season > 1:
			score = (season-1)*seasonWeight + episode*episodeWeight
		case season == 1:
			switch {
			case episode > 5:
				score = deepSeason1Score
			case episode > 1:
				score = midSeason1Score
			default:
				score = earlySeason1Score
			}
		}
	}

	// Recently touched but lightly engaged items get a boost so fresh
	// interests surface before long-finished favorites.
	if score < recencyBonusCeiling && daysSinceWatch < recencyWindowDays {
		score += recencyBonus
	}

	decay := int(math.Floor(daysSinceWatch/30)) * decayPerMonth
	if decay > decayCap {
		decay = decayCap
	}
	if decay < 0 {
		decay = 0
	}

	score -= decay
	if score < 0 {
		score = 0
	}
	return score
}
