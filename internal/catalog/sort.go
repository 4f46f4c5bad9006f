// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package catalog

import (
	"math/rand"
	"sort"

	"github.com/cinemind/cinemind/internal/models"
)

// sortCandidates arranges the finished catalog. Dates are ISO strings, so
// lexicographic comparison orders them; missing dates sink to the end.
func sortCandidates(items []models.Candidate, order string) {
	switch order {
	case "date_desc":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ReleaseOrAirDate() > items[j].ReleaseOrAirDate()
		})
	case "popularity_desc":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Popularity > items[j].Popularity
		})
	case "random":
		rand.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
	default: // rating_desc
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].VoteAverage > items[j].VoteAverage
		})
	}
}

// shuffleMetas reshuffles a served catalog in place, used so the random sort
// order stays random across cache hits.
func shuffleMetas(metas []models.MetaItem) {
	rand.Shuffle(len(metas), func(i, j int) {
		metas[i], metas[j] = metas[j], metas[i]
	})
}
