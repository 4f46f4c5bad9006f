// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package api exposes the Stremio addon HTTP surface: the per-user
// manifest, the catalog endpoints, the configure endpoint, and the
// operational endpoints, routed with Chi.
//
// Every addon route is token-scoped: the first path segment is a
// base64url-encoded configuration token that carries the user's
// credentials and settings, so the server itself holds no user state.
package api
