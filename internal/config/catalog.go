// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package config

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// CatalogEntry is one row of the user's catalog ordering, carrying per-catalog
// presentation overrides.
type CatalogEntry struct {
	ID             string   `json:"id" validate:"required"`
	CustomName     string   `json:"customName,omitempty" validate:"omitempty,max=60"`
	ExcludedGenres []string `json:"excludedGenres,omitempty" validate:"omitempty,dive,max=40"`
}

// CatalogConfig is the per-user configuration carried in the addon URL. It
// selects the watch-history source, credentials, recommendation engines, and
// presentation settings for every generated catalog.
type CatalogConfig struct {
	// LibrarySource selects where watch history comes from.
	LibrarySource string `json:"librarySource" validate:"required,oneof=stremio mdblist"`

	// AuthKey is the library-source credential (session key or API key).
	AuthKey string `json:"authKey" validate:"required,min=8"`

	// MDBListAPIKey is required when LibrarySource is mdblist.
	MDBListAPIKey string `json:"mdblistApiKey,omitempty" validate:"required_if=LibrarySource mdblist"`

	TMDBAPIKey    string `json:"tmdbApiKey,omitempty"`
	TraktClientID string `json:"traktClientId,omitempty"`
	RPDBKey       string `json:"rpdbKey,omitempty"`

	// RecEngine picks the recommendation source for non-anime titles.
	RecEngine string `json:"recEngine" validate:"oneof=tmdb trakt combined"`

	// AnimeEngine picks the recommendation source for anime titles.
	AnimeEngine string `json:"animeEngine" validate:"oneof=anilist tmdb"`

	// InputMode controls how seeds are sampled from history.
	InputMode string `json:"inputMode" validate:"oneof=adaptive random"`

	// SourceCount bounds how many history titles seed the fan-out.
	SourceCount int `json:"sourceCount" validate:"min=1,max=10000"`

	// MinRating drops candidates rated below the threshold. 0 disables.
	MinRating float64 `json:"minRating" validate:"min=0,max=10"`

	// Era restricts candidates by release window.
	Era string `json:"era" validate:"oneof=all modern 2000s 90s classic"`

	// Language restricts candidates to one original language. Empty allows all.
	Language string `json:"language,omitempty" validate:"omitempty,len=2"`

	HideWatched   bool `json:"hideWatched"`
	FillGaps      bool `json:"fillGaps"`
	AnimeFillGaps bool `json:"animeFillGaps"`

	// MovieIDType, SeriesIDType and AnimeIDType pick the identifier scheme
	// emitted in catalog items.
	MovieIDType  string `json:"movieIdType" validate:"oneof=tmdb imdb"`
	SeriesIDType string `json:"seriesIdType" validate:"oneof=tmdb imdb tvdb"`
	AnimeIDType  string `json:"animeIdType" validate:"oneof=tmdb imdb kitsu mal"`

	// SortOrder arranges the final catalog.
	SortOrder string `json:"sortOrder" validate:"oneof=rating_desc date_desc popularity_desc random"`

	// CatalogOrder lists the enabled catalogs in display order. Unknown ids
	// are rejected; an empty list enables only the standard catalogs.
	CatalogOrder []CatalogEntry `json:"catalog_order,omitempty" validate:"omitempty,dive"`
}

// DefaultCatalogConfig returns the settings applied when a token omits
// optional fields.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		RecEngine:    "tmdb",
		AnimeEngine:  "anilist",
		InputMode:    "adaptive",
		SourceCount:  20,
		Era:          "all",
		MovieIDType:  "tmdb",
		SeriesIDType: "tmdb",
		AnimeIDType:  "tmdb",
		SortOrder:    "rating_desc",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeToken parses a base64url-encoded JSON configuration token from an
// addon URL into a validated CatalogConfig. Missing optional fields take
// their defaults before validation.
func DecodeToken(token string) (*CatalogConfig, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil, fmt.Errorf("decode config token: %w", err)
	}

	cfg := DefaultCatalogConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config token: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EncodeToken serializes the configuration into the URL-safe token form.
// Used by the configure endpoint and by tests.
func EncodeToken(cfg *CatalogConfig) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Validate checks the configuration against its declared constraints plus
// the cross-field rules the tag language cannot express.
func (c *CatalogConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := errors.As(err, &verrs); ok && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config: field %s failed %s", f.Field(), f.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	for i := range c.CatalogOrder {
		entry := &c.CatalogOrder[i]
		if !SupportedCatalogID(entry.ID) {
			return fmt.Errorf("invalid config: unknown catalog id %q", entry.ID)
		}
		entry.CustomName = SanitizeCatalogName(entry.CustomName)
	}
	return nil
}

// EnabledCatalogs returns the catalog definitions the user has enabled, in
// display order. With no explicit order only the standard catalogs show;
// the crew and anime surfaces are opt-in.
func (c *CatalogConfig) EnabledCatalogs() []CatalogDefinition {
	if len(c.CatalogOrder) == 0 {
		out := make([]CatalogDefinition, 0, 2)
		for _, def := range CatalogDefinitions {
			if def.Key == "std_mov" || def.Key == "std_ser" {
				out = append(out, def)
			}
		}
		return out
	}
	out := make([]CatalogDefinition, 0, len(c.CatalogOrder))
	for _, entry := range c.CatalogOrder {
		for _, def := range CatalogDefinitions {
			if def.ID == entry.ID {
				if entry.CustomName != "" {
					def.Name = entry.CustomName
				}
				out = append(out, def)
				break
			}
		}
	}
	return out
}

// CatalogEntryFor returns the user's entry for a catalog id, if present.
func (c *CatalogConfig) CatalogEntryFor(id string) (CatalogEntry, bool) {
	for _, entry := range c.CatalogOrder {
		if entry.ID == id {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}

// settingsFingerprint captures every setting that changes catalog contents.
// Credentials are deliberately excluded; they are keyed separately so that
// rotating a key does not orphan cached catalogs.
type settingsFingerprint struct {
	Mode        string  `json:"mode"`
	Rating      float64 `json:"rating"`
	Era         string  `json:"era"`
	Lang        string  `json:"lang"`
	RPDB        bool    `json:"rpdb"`
	MovieID     string  `json:"mId"`
	SeriesID    string  `json:"sId"`
	AnimeID     string  `json:"aId"`
	Sort        string  `json:"sort"`
	Engine      string  `json:"engine"`
	AnimeEngine string  `json:"animeEngine"`
}

// SettingsHash returns a short stable digest of the content-affecting
// settings, used as a cache key component so a settings change invalidates
// previously generated catalogs.
func (c *CatalogConfig) SettingsHash() string {
	fp := settingsFingerprint{
		Mode:        c.InputMode,
		Rating:      c.MinRating,
		Era:         c.Era,
		Lang:        c.Language,
		RPDB:        c.RPDBKey != "",
		MovieID:     c.MovieIDType,
		SeriesID:    c.SeriesIDType,
		AnimeID:     c.AnimeIDType,
		Sort:        c.SortOrder,
		Engine:      c.RecEngine,
		AnimeEngine: c.AnimeEngine,
	}
	raw, _ := json.Marshal(fp)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// SanitizeCatalogName strips control characters and trims a user-supplied
// catalog name so it renders safely in client UIs.
func SanitizeCatalogName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > 60 {
		cleaned = cleaned[:60]
	}
	return cleaned
}
