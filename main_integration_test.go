// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build integration

/*
To run these tests, specify `-tags=integration` when running `go test` and
point XEO_TEST_DATABASE_URL at a disposable PostgreSQL database.
*/
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/xeoos/xeo/config"
	"codeberg.org/xeoos/xeo/core/authenticated"
)

const (
	// Server configuration constants.
	host      = "127.0.0.1:8282"
	authority = "http://127.0.0.1:8282"

	// Polling constants.
	retryCount  = 40
	dialTimeout = 250 * time.Millisecond
)

// httpTestCase defines a test case.
type httpTestCase struct {
	URL                string
	Method             string
	ExpectedStatusCode int
	Header             http.Header
	Body               any
}

// setDefault sets the default values for the test case.
func (c *httpTestCase) setDefault() {
	if c.ExpectedStatusCode == 0 {
		c.ExpectedStatusCode = http.StatusOK
	}
}

// TestMain is used for global setup and teardown.
//
// It starts the server against the test database and waits for it to be
// available before running tests.
func TestMain(m *testing.M) {
	dbURL := os.Getenv("XEO_TEST_DATABASE_URL")
	if dbURL == "" {
		log.Print("XEO_TEST_DATABASE_URL is not set, skipping integration tests")
		os.Exit(0)
	}

	for k, v := range map[string]string{
		"XEO_HOST":             "127.0.0.1",
		"XEO_PORT":             "8282",
		"XEO_DATABASE_URL":     dbURL,
		"XEO_DATABASE_MIGRATE": "true",
		"XEO_SECRET":           authenticated.NewSecretKeyHex(),
		"XEO_LIMITER":          "false",
	} {
		if err := os.Setenv(k, v); err != nil {
			log.Fatalf("Failed to set %s: %v", k, err)
		}
	}

	go func() {
		if err := run(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for the server.
	if !waitForServerReady() {
		log.Fatalf("Server did not start in time")
	}

	os.Exit(m.Run())
}

// waitForServerReady polls the server until it's available or the retries are exhausted.
func waitForServerReady() bool {
	for range retryCount {
		conn, err := net.DialTimeout("tcp", host, dialTimeout)
		if err == nil {
			_ = conn.Close()

			return true // Server is up.
		}

		time.Sleep(dialTimeout)
	}

	return false
}

// TestBasicAllRoutes tests the routes that need no token.
func TestBasicAllRoutes(t *testing.T) {
	t.Parallel()

	testCases := []httpTestCase{
		{URL: "/healthz", Method: http.MethodGet},
		{URL: "/en-US", Method: http.MethodGet},
		{URL: "/ja-JP/topic/general", Method: http.MethodGet},
		{URL: "/api/posts", Method: http.MethodGet},
		{URL: "/api/posts?topic=general&limit=5", Method: http.MethodGet},

		// Locale routing
		{
			URL:                "/",
			Method:             http.MethodGet,
			Header:             http.Header{"Accept-Language": {"fr-CH, fr;q=0.9"}},
			ExpectedStatusCode: http.StatusTemporaryRedirect,
		},
		{URL: "/xx-XX", Method: http.MethodGet, ExpectedStatusCode: http.StatusNotFound},
		{URL: "/api/posts/not-a-uuid", Method: http.MethodGet, ExpectedStatusCode: http.StatusNotFound},
		{URL: "/api/posts/" + uuid.NewString(), Method: http.MethodGet, ExpectedStatusCode: http.StatusNotFound},
		{URL: "/api/drafts", Method: http.MethodGet, ExpectedStatusCode: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s %s", tc.Method, tc.URL), func(t *testing.T) {
			t.Parallel()
			tc.setDefault()

			resp := makeRequest(t, buildRequest(t, tc))
			defer resp.Body.Close()

			assert.Equal(t, tc.ExpectedStatusCode, resp.StatusCode)
		})
	}
}

// TestPostLifecycle writes a post, replies to it and reads the thread back.
func TestPostLifecycle(t *testing.T) {
	t.Parallel()

	token, err := config.TokenValidator.Sign(uuid.New(), "integration", time.Hour)
	require.NoError(t, err)

	auth := http.Header{"Authorization": {"Bearer " + token}}

	resp := makeRequest(t, buildRequest(t, httpTestCase{
		URL:    "/api/posts",
		Method: http.MethodPost,
		Header: auth,
		Body:   map[string]string{"topic": "general", "title": "Hello", "body": "<p>First post</p>"},
	}))
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&post))

	testCases := []httpTestCase{
		{
			URL:                "/api/posts/" + post.ID.String() + "/replies",
			Method:             http.MethodPost,
			Header:             auth,
			Body:               map[string]string{"body": "A reply"},
			ExpectedStatusCode: http.StatusCreated,
		},
		{URL: "/api/posts/" + post.ID.String(), Method: http.MethodGet},
		{URL: "/de-DE/posts/" + post.ID.String(), Method: http.MethodGet},
		{URL: "/og/posts/" + post.ID.String() + ".svg", Method: http.MethodGet},
		{
			URL:                "/api/posts/" + post.ID.String(),
			Method:             http.MethodPatch,
			Header:             auth,
			Body:               map[string]string{"body": ""},
			ExpectedStatusCode: http.StatusUnprocessableEntity,
		},
	}

	// Sequential: the reply must exist before the thread is read.
	for _, tc := range testCases {
		tc.setDefault()

		resp := makeRequest(t, buildRequest(t, tc))
		_ = resp.Body.Close()

		assert.Equal(t, tc.ExpectedStatusCode, resp.StatusCode, "%s %s", tc.Method, tc.URL)
	}
}

func buildRequest(t *testing.T, tc httpTestCase) *http.Request {
	t.Helper()

	var body bytes.Buffer

	if tc.Body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(tc.Body))
	}

	req, err := http.NewRequestWithContext(context.TODO(), tc.Method, authority+tc.URL, &body)
	require.NoError(t, err)

	for k, v := range tc.Header {
		req.Header[k] = v
	}

	if tc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func makeRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	require.NoError(t, err)

	return resp
}
