// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/cinemind/cinemind/internal/catalog"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/models"
)

// Cache-Control lifetimes for client-side caching. Catalogs revalidate
// hourly so the stale-while-revalidate layer gets a chance to run; the
// manifest only changes when the user reconfigures.
const (
	catalogCacheControl  = "public, max-age=3600"
	manifestCacheControl = "public, max-age=43200"
)

// CatalogService produces the metas for one catalog request. Implemented
// by catalog.Orchestrator.
type CatalogService interface {
	Catalog(ctx context.Context, req *catalog.Request) ([]models.MetaItem, error)
}

// Handler serves the addon endpoints.
type Handler struct {
	service CatalogService
	baseURL string
}

// NewHandler builds the endpoint handler. baseURL, when set, is used to
// render absolute install URLs from the configure endpoint.
func NewHandler(service CatalogService, baseURL string) *Handler {
	return &Handler{service: service, baseURL: strings.TrimRight(baseURL, "/")}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

// Manifest serves the per-configuration addon manifest.
func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.decodeToken(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", manifestCacheControl)
	respondJSON(w, http.StatusOK, BuildManifest(cfg))
}

// Catalog serves one catalog page.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.decodeToken(w, r)
	if !ok {
		return
	}

	mediaType := chi.URLParam(r, "type")
	catalogID := strings.TrimSuffix(chi.URLParam(r, "id"), ".json")
	def, ok := catalogDefinition(catalogID, mediaType)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown catalog")
		return
	}

	extraSegment := strings.TrimSuffix(chi.URLParam(r, "extra"), ".json")
	extra, err := parseExtra(extraSegment)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Search is declared nowhere in the manifest; a client probing with it
	// gets an empty page rather than a mislabeled personalized one.
	if extra.Search != "" {
		w.Header().Set("Cache-Control", catalogCacheControl)
		respondJSON(w, http.StatusOK, models.MetaResponse{Metas: []models.MetaItem{}})
		return
	}

	req := &catalog.Request{Config: cfg, Definition: def, Genre: extra.Genre}
	metas, err := h.service.Catalog(r.Context(), req)
	if err != nil {
		logging.Error().Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("catalog", def.ID).
			Msg("catalog generation failed")
		// Clients render metas, not error bodies; a failed generation still
		// returns an empty page.
		respondJSON(w, http.StatusInternalServerError, models.MetaResponse{Metas: []models.MetaItem{}})
		return
	}

	if extra.Skip >= len(metas) {
		metas = []models.MetaItem{}
	} else {
		metas = metas[extra.Skip:]
	}

	w.Header().Set("Cache-Control", catalogCacheControl)
	respondJSON(w, http.StatusOK, models.MetaResponse{Metas: metas})
}

// configureResponse is the configure endpoint's reply: the opaque token
// plus ready-to-use install URLs.
type configureResponse struct {
	Token       string `json:"token"`
	ManifestURL string `json:"manifestUrl"`
}

// Configure validates a posted configuration and returns its token form.
func (h *Handler) Configure(w http.ResponseWriter, r *http.Request) {
	cfg := config.DefaultCatalogConfig()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "malformed configuration body")
		return
	}
	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := config.EncodeToken(&cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "token encoding failed")
		return
	}
	respondJSON(w, http.StatusOK, configureResponse{
		Token:       token,
		ManifestURL: h.baseURL + "/" + token + "/manifest.json",
	})
}

// decodeToken parses the token path segment, writing the error response on
// failure.
func (h *Handler) decodeToken(w http.ResponseWriter, r *http.Request) (*config.CatalogConfig, bool) {
	cfg, err := config.DecodeToken(chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid configuration token")
		return nil, false
	}
	return cfg, true
}

// catalogDefinition resolves a public catalog id and checks the media type
// matches the surface.
func catalogDefinition(id, mediaType string) (config.CatalogDefinition, bool) {
	for _, def := range config.CatalogDefinitions {
		if def.ID == id && def.Type == mediaType {
			return def, true
		}
	}
	return config.CatalogDefinition{}, false
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Debug().Err(err).Msg("response write failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
