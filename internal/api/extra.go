// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package api

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	maxExtraValueLen = 100
	maxSkip          = 10000
)

// ExtraParams are the catalog extra parameters the addon understands.
type ExtraParams struct {
	Genre  string
	Skip   int
	Search string
}

// parseExtra parses the optional extra path segment of a catalog request,
// e.g. "genre=Action&skip=100". Only whitelisted keys are honored; unknown
// keys are ignored because clients are free to send extras we never
// declared.
func parseExtra(segment string) (ExtraParams, error) {
	var extra ExtraParams
	if segment == "" {
		return extra, nil
	}

	// The segment arrives query-shaped and still percent-escaped; ParseQuery
	// unescapes values itself, which keeps an escaped "&" inside a genre
	// name from splitting the pair.
	values, err := url.ParseQuery(segment)
	if err != nil {
		return extra, fmt.Errorf("malformed extra segment: %w", err)
	}

	if genre := values.Get("genre"); genre != "" {
		if len(genre) > maxExtraValueLen {
			return extra, fmt.Errorf("genre value too long")
		}
		extra.Genre = genre
	}
	if search := values.Get("search"); search != "" {
		if len(search) > maxExtraValueLen {
			return extra, fmt.Errorf("search value too long")
		}
		extra.Search = search
	}
	if raw := values.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 || skip > maxSkip {
			return extra, fmt.Errorf("invalid skip value %q", raw)
		}
		extra.Skip = skip
	}
	return extra, nil
}
