// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package version

import "net/http"

// known holds every version the API will honor. Requests carrying an
// unrecognized version are served as the latest.
var known = map[string]bool{
	Version20260801: true,
}

// Middleware resolves the requested API version from the Taskboard-Version
// header and stores it in the request context. Missing or unknown versions
// resolve to LatestVersion. The resolved version is echoed back in the
// response header.
//
// Usage:
//
//	router.Use(version.Middleware)
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version := r.Header.Get(Header)
		if !known[version] {
			version = LatestVersion
		}

		ctx := WithContext(r.Context(), version)
		w.Header().Set(Header, version)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
