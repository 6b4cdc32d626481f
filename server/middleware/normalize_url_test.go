// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		requestURL       string
		expectedStatus   int
		expectedLocation string
	}{
		{
			name:           "Root path should not redirect",
			requestURL:     "/",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Path without trailing slash should not redirect",
			requestURL:     "/en-US/posts/123",
			expectedStatus: http.StatusOK,
		},
		{
			name:             "Path with trailing slash should redirect",
			requestURL:       "/en-US/posts/123/",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/en-US/posts/123",
		},
		{
			name:             "Repeated slashes should collapse",
			requestURL:       "/ja-JP//topic///news",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/ja-JP/topic/news",
		},
		{
			name:             "Query parameters should be preserved",
			requestURL:       "/api/posts/?topic=news&limit=5",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/api/posts?topic=news&limit=5",
		},
		{
			name:             "Several trailing slashes should all go",
			requestURL:       "/login///",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			handler := Wrap(NormalizeURL, nextHandler)

			req := httptest.NewRequest(http.MethodGet, tt.requestURL, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if location := w.Header().Get("Location"); location != tt.expectedLocation {
				t.Errorf("Expected location %q, got %q", tt.expectedLocation, location)
			}
		})
	}
}

func TestHasTrailingSlash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected bool
	}{
		{"/", false},
		{"/en-US", false},
		{"/en-US/", true},
		{"/api/posts/123/replies/", true},
		{"/api/posts/123/replies", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if result := hasTrailingSlash(tt.path); result != tt.expected {
				t.Errorf("hasTrailingSlash(%q) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}
}
