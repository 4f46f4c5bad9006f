// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// GenerateKey creates a cache key from a method name and its parameters.
// Parameters are serialized to JSON and hashed so arbitrarily large inputs
// produce compact, collision-resistant keys.
func GenerateKey(method string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}

// HashCredential digests a user credential into a short hex token so raw
// keys never appear in cache keys or logs.
func HashCredential(credential string) string {
	hash := sha256.Sum256([]byte(credential))
	return fmt.Sprintf("%x", hash[:8])
}

// CatalogKey builds the cache key for one generated catalog. Genre may be
// empty for the unfiltered surface; settingsHash comes from the user config
// so a settings change addresses a different entry.
func CatalogKey(source, credential, catalogID, genre, settingsHash string) string {
	return strings.Join([]string{
		"catalog", source, HashCredential(credential), catalogID, genre, settingsHash,
	}, ":")
}
