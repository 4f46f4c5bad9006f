// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/cinemind/cinemind/internal/config"
)

// Version is the addon version advertised in the manifest.
const Version = "8.3.0"

const (
	addonIDPrefix = "org.stremio.personalizedrecs"
	addonName     = "Cinemind"
	addonArtwork  = "https://i.imgur.com/VuuIDMY.png"
)

// Manifest is the Stremio addon manifest document.
type Manifest struct {
	ID            string            `json:"id"`
	Version       string            `json:"version"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Logo          string            `json:"logo"`
	Background    string            `json:"background"`
	Resources     []string          `json:"resources"`
	Types         []string          `json:"types"`
	Catalogs      []ManifestCatalog `json:"catalogs"`
	BehaviorHints BehaviorHints     `json:"behaviorHints"`
}

// ManifestCatalog describes one catalog surface to the client.
type ManifestCatalog struct {
	Type  string       `json:"type"`
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Extra []ExtraField `json:"extra,omitempty"`
}

// ExtraField declares an extra parameter a catalog accepts.
type ExtraField struct {
	Name       string   `json:"name"`
	Options    []string `json:"options,omitempty"`
	IsRequired bool     `json:"isRequired,omitempty"`
}

// BehaviorHints carries client behavior flags.
type BehaviorHints struct {
	Configurable bool `json:"configurable"`
}

// manifestFingerprint captures the settings that change the manifest
// identity. Clients key installed addons by manifest id, so two configs
// that present differently must hash differently.
type manifestFingerprint struct {
	Mode        string `json:"mode"`
	Lang        string `json:"lang"`
	RPDB        string `json:"rpdb"`
	Eras        string `json:"eras"`
	Order       string `json:"order"`
	AnimeEngine string `json:"animeEngine"`
}

// ConfigHash returns a short digest distinguishing manifest identities.
func ConfigHash(cfg *config.CatalogConfig) string {
	order := "default"
	if len(cfg.CatalogOrder) > 0 {
		raw, _ := json.Marshal(cfg.CatalogOrder)
		order = string(raw)
	}
	fp := manifestFingerprint{
		Mode:        cfg.InputMode,
		Lang:        cfg.Language,
		RPDB:        cfg.RPDBKey,
		Eras:        cfg.Era,
		Order:       order,
		AnimeEngine: cfg.AnimeEngine,
	}
	raw, _ := json.Marshal(fp)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:12]
}

// BuildManifest renders the manifest for one user configuration.
func BuildManifest(cfg *config.CatalogConfig) *Manifest {
	defs := cfg.EnabledCatalogs()
	catalogs := make([]ManifestCatalog, 0, len(defs))
	for _, def := range defs {
		catalogs = append(catalogs, ManifestCatalog{
			Type:  def.Type,
			ID:    def.ID,
			Name:  def.Name,
			Extra: extraFields(def),
		})
	}

	return &Manifest{
		ID:            fmt.Sprintf("%s.%s", addonIDPrefix, ConfigHash(cfg)),
		Version:       Version,
		Name:          addonName,
		Description:   describeConfig(cfg),
		Logo:          addonArtwork,
		Background:    addonArtwork,
		Resources:     []string{"catalog"},
		Types:         []string{"movie", "series"},
		Catalogs:      catalogs,
		BehaviorHints: BehaviorHints{Configurable: true},
	}
}

func extraFields(def config.CatalogDefinition) []ExtraField {
	fields := make([]ExtraField, 0, 2)
	if len(def.GenreOptions) > 0 {
		fields = append(fields, ExtraField{Name: "genre", Options: def.GenreOptions})
	}
	fields = append(fields, ExtraField{Name: "skip"})
	return fields
}

// describeConfig summarizes the active settings so users can tell their
// installs apart in the client's addon list.
func describeConfig(cfg *config.CatalogConfig) string {
	lang := cfg.Language
	if lang == "" {
		lang = "All"
	}
	lines := []string{
		fmt.Sprintf("📚 Library: %s | Recs: %s | Anime: %s",
			cfg.LibrarySource, cfg.RecEngine, cfg.AnimeEngine),
		fmt.Sprintf("⚙️ Mode: %s | Language: %s | Eras: %s",
			cfg.InputMode, lang, cfg.Era),
		fmt.Sprintf("🎨 RPDB: %s | Min Rating: %s | Hide Watched: %s",
			onOff(cfg.RPDBKey != ""), ratingLabel(cfg.MinRating), onOff(cfg.HideWatched)),
		fmt.Sprintf("🔄 Gap Fill: %s | Anime Fill: %s | Sort: %s",
			onOff(cfg.FillGaps), onOff(cfg.AnimeFillGaps), cfg.SortOrder),
		fmt.Sprintf("🆔 Movies: %s | Series: %s | Anime: %s",
			cfg.MovieIDType, cfg.SeriesIDType, cfg.AnimeIDType),
	}
	return strings.Join(lines, "\n")
}

func onOff(enabled bool) string {
	if enabled {
		return "On"
	}
	return "Off"
}

func ratingLabel(minRating float64) string {
	if minRating <= 0 {
		return "None"
	}
	return fmt.Sprintf("%g+", minRating)
}
