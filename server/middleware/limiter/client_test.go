// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/xeoos/xeo/config"
)

func TestNewClientInfo(t *testing.T) {
	setupLimiterTest(t)

	r := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
	r.RemoteAddr = "192.0.2.44:9999"

	c, err := newClientInfo(r)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.44", c.addr.String())
	assert.Equal(t, "192.0.2.0/24", c.network.String())

	r.RemoteAddr = "[2001:db8:aa:bb::1]:9999"

	c, err = newClientInfo(r)
	require.NoError(t, err)
	assert.Equal(t, "2001:db8:aa::/48", c.network.String())

	config.Global.Limiter.IPv4Prefix = 16
	config.Global.Limiter.IPv6Prefix = 32
	r.RemoteAddr = "192.0.2.44:9999"

	c, err = newClientInfo(r)
	require.NoError(t, err)
	assert.Equal(t, "192.0.0.0/16", c.network.String(), "prefixes follow the limiter config")

	r.RemoteAddr = "[::ffff:192.0.2.44]:9999"

	c, err = newClientInfo(r)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.44", c.addr.String(), "mapped addresses count as IPv4")
	assert.Equal(t, "192.0.0.0/16", c.network.String())

	r.RemoteAddr = "999.999.999.999:1234"

	_, err = newClientInfo(r)
	require.ErrorIs(t, err, errInvalidIPFormat)

	r.RemoteAddr = ""

	_, err = newClientInfo(r)
	require.ErrorIs(t, err, errMissingClientIP)
}

func TestCheckIPLists(t *testing.T) {
	setupLimiterTest(t)

	tests := []struct {
		ip          string
		expectPass  bool
		expectBlock bool
	}{
		{"203.0.113.7", true, false},
		{"198.51.100.20", false, true},
		{"192.0.2.1", false, false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		r.RemoteAddr = tt.ip + ":9999"

		c, err := newClientInfo(r)
		require.NoError(t, err)

		pass, block := c.checkIPLists()
		assert.Equal(t, tt.expectPass, pass, tt.ip)
		assert.Equal(t, tt.expectBlock, block, tt.ip)
	}
}

func TestIsLocal(t *testing.T) {
	setupLimiterTest(t)

	for addr, want := range map[string]bool{
		"127.0.0.1:1":       true,
		"169.254.100.50:1":  true,
		"[fe80::1]:1":       true,
		"[::1]:1":           true,
		"192.168.0.1:1":     false,
		"[2001:db8::1]:1":   false,
		"198.51.100.200:80": false,
	} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr

		c, err := newClientInfo(r)
		require.NoError(t, err)
		assert.Equal(t, want, c.isLocal(), addr)
	}
}

func TestIsLimitedRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodPost, "/api/posts", true},
		{http.MethodPatch, "/api/posts/1", true},
		{http.MethodPut, "/api/settings", true},
		{http.MethodDelete, "/api/replies/1", true},
		{http.MethodGet, "/api/posts", false},
		{http.MethodGet, "/api/notifications/stream", false},
		{http.MethodPost, "/en-US/posts", false},
		{http.MethodHead, "/api/posts", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.path, nil)
		assert.Equal(t, tt.want, isLimitedRequest(r), tt.method+" "+tt.path)
	}
}
