// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/cinemind/cinemind/internal/catalog"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/models"
)

type stubCatalogService struct {
	mu      sync.Mutex
	metas   []models.MetaItem
	err     error
	lastReq *catalog.Request
}

func (s *stubCatalogService) Catalog(_ context.Context, req *catalog.Request) ([]models.MetaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReq = req
	return s.metas, s.err
}

func (s *stubCatalogService) lastRequest() *catalog.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

func newTestServer(t *testing.T, service CatalogService) *httptest.Server {
	t.Helper()
	router := NewRouter(&config.ServerConfig{RateLimit: 0}, service, "http://addon.test")
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func testToken(t *testing.T, mutate func(*config.CatalogConfig)) string {
	t.Helper()
	token, err := config.EncodeToken(testCatalogConfig(mutate))
	if err != nil {
		t.Fatalf("EncodeToken: %v", err)
	}
	return token
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubCatalogService{})

	resp := get(t, srv, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" || body["version"] != Version {
		t.Errorf("health body = %v", body)
	}
}

func TestManifestEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubCatalogService{})
	token := testToken(t, nil)

	resp := get(t, srv, "/"+token+"/manifest.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != manifestCacheControl {
		t.Errorf("Cache-Control = %q", cc)
	}

	var m Manifest
	decodeBody(t, resp, &m)
	if !strings.HasPrefix(m.ID, addonIDPrefix+".") {
		t.Errorf("manifest id = %q", m.ID)
	}
	if len(m.Catalogs) != 2 {
		t.Errorf("manifest exposes %d catalogs, want 2", len(m.Catalogs))
	}
}

func TestManifestRejectsBadToken(t *testing.T) {
	srv := newTestServer(t, &stubCatalogService{})

	resp := get(t, srv, "/not-a-token/manifest.json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	service := &stubCatalogService{metas: []models.MetaItem{
		{ID: "tmdb:1", Type: "movie", Name: "First"},
		{ID: "tmdb:2", Type: "movie", Name: "Second"},
	}}
	srv := newTestServer(t, service)
	token := testToken(t, nil)

	resp := get(t, srv, "/"+token+"/catalog/movie/personalized_recs_movies.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body models.MetaResponse
	decodeBody(t, resp, &body)
	if len(body.Metas) != 2 || body.Metas[0].ID != "tmdb:1" {
		t.Errorf("metas = %+v", body.Metas)
	}

	req := service.lastRequest()
	if req == nil || req.Definition.ID != "personalized_recs_movies" || req.Genre != "" {
		t.Errorf("service request = %+v", req)
	}
}

func TestCatalogGenreExtra(t *testing.T) {
	service := &stubCatalogService{}
	srv := newTestServer(t, service)
	token := testToken(t, nil)

	resp := get(t, srv, "/"+token+"/catalog/movie/personalized_recs_movies/genre=Action.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if req := service.lastRequest(); req == nil || req.Genre != "Action" {
		t.Errorf("service request = %+v", req)
	}
}

func TestCatalogSkipPagination(t *testing.T) {
	metas := make([]models.MetaItem, 5)
	for i := range metas {
		metas[i] = models.MetaItem{ID: string(rune('a' + i)), Type: "movie"}
	}
	srv := newTestServer(t, &stubCatalogService{metas: metas})
	token := testToken(t, nil)

	resp := get(t, srv, "/"+token+"/catalog/movie/personalized_recs_movies/skip=3.json")
	var body models.MetaResponse
	decodeBody(t, resp, &body)
	if len(body.Metas) != 2 || body.Metas[0].ID != "d" {
		t.Errorf("skipped page = %+v", body.Metas)
	}

	resp = get(t, srv, "/"+token+"/catalog/movie/personalized_recs_movies/skip=100.json")
	body = models.MetaResponse{}
	decodeBody(t, resp, &body)
	if body.Metas == nil || len(body.Metas) != 0 {
		t.Errorf("past-the-end page = %+v, want empty list", body.Metas)
	}
}

func TestCatalogUnknownIDOrTypeMismatch(t *testing.T) {
	srv := newTestServer(t, &stubCatalogService{})
	token := testToken(t, nil)

	for _, path := range []string{
		"/" + token + "/catalog/movie/not_a_catalog.json",
		"/" + token + "/catalog/series/personalized_recs_movies.json",
	} {
		if resp := get(t, srv, path); resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestCatalogSearchReturnsEmpty(t *testing.T) {
	service := &stubCatalogService{metas: []models.MetaItem{{ID: "tmdb:1"}}}
	srv := newTestServer(t, service)
	token := testToken(t, nil)

	resp := get(t, srv, "/"+token+"/catalog/movie/personalized_recs_movies/search=batman.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body models.MetaResponse
	decodeBody(t, resp, &body)
	if len(body.Metas) != 0 {
		t.Errorf("search returned %d metas, want 0", len(body.Metas))
	}
	if service.lastRequest() != nil {
		t.Error("search request reached the catalog service")
	}
}

func TestCatalogServiceErrorReturnsEmptyMetas(t *testing.T) {
	srv := newTestServer(t, &stubCatalogService{err: context.DeadlineExceeded})
	token := testToken(t, nil)

	resp := get(t, srv, "/"+token+"/catalog/movie/personalized_recs_movies.json")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	// The body stays renderable: an empty metas list, not an error object.
	var body models.MetaResponse
	decodeBody(t, resp, &body)
	if body.Metas == nil || len(body.Metas) != 0 {
		t.Errorf("metas = %v, want empty list", body.Metas)
	}
}

func TestConfigureRoundTrip(t *testing.T) {
	srv := newTestServer(t, &stubCatalogService{})

	payload := `{"librarySource":"stremio","authKey":"test-auth-key","language":"fr"}`
	resp, err := srv.Client().Post(srv.URL+"/api/configure", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /api/configure: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body configureResponse
	decodeBody(t, resp, &body)
	if !strings.HasPrefix(body.ManifestURL, "http://addon.test/") ||
		!strings.HasSuffix(body.ManifestURL, "/manifest.json") {
		t.Errorf("manifest url = %q", body.ManifestURL)
	}

	cfg, err := config.DecodeToken(body.Token)
	if err != nil {
		t.Fatalf("returned token does not decode: %v", err)
	}
	if cfg.Language != "fr" || cfg.RecEngine != "tmdb" {
		t.Errorf("decoded config = %+v", cfg)
	}
}

func TestConfigureRejectsInvalidConfig(t *testing.T) {
	srv := newTestServer(t, &stubCatalogService{})

	payload := `{"librarySource":"mdblist","authKey":"test-auth-key"}`
	resp, err := srv.Client().Post(srv.URL+"/api/configure", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /api/configure: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (mdblist without api key)", resp.StatusCode)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t, &stubCatalogService{})
	token := testToken(t, nil)

	resp := get(t, srv, "/"+token+"/manifest.json")
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
}
