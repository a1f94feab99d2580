// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyle-ventures/fredproxy/internal/netutil"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeAllowList},
		{in: "allow-list", want: ModeAllowList},
		{in: " Allow-All ", want: ModeAllowAll},
		{in: "open", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestAllowList_Membership(t *testing.T) {
	p, err := AllowList(DefaultOrigins...)
	require.NoError(t, err)

	assert.Equal(t, ModeAllowList, p.Mode())
	assert.True(t, p.Permits(""), "no Origin header is always permitted")
	assert.True(t, p.Permits("https://lyle-ventures.xyz"))
	assert.True(t, p.Permits("https://LYLE-ventures.xyz:443"))
	assert.True(t, p.Permits("http://localhost:3000"))
	assert.False(t, p.Permits("https://evil.example"))
	assert.False(t, p.Permits("http://localhost:9999"))
	assert.False(t, p.Permits("null"))

	v, ok := p.AllowOrigin("https://www.lyle-ventures.xyz")
	assert.True(t, ok)
	assert.Equal(t, "https://www.lyle-ventures.xyz", v)

	_, ok = p.AllowOrigin("https://evil.example")
	assert.False(t, ok)
	_, ok = p.AllowOrigin("")
	assert.False(t, ok)
}

func TestAllowList_EchoesRequestOrigin(t *testing.T) {
	p, err := AllowList("https://lyle-ventures.xyz")
	require.NoError(t, err)

	v, ok := p.AllowOrigin("https://Lyle-Ventures.xyz")
	require.True(t, ok)
	assert.Equal(t, "https://Lyle-Ventures.xyz", v)
}

func TestAllowList_RejectsMalformedOrigin(t *testing.T) {
	_, err := AllowList("https://ok.example", "not-an-origin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, netutil.ErrInvalidOrigin))
}

func TestAllowList_DeduplicatesAndSorts(t *testing.T) {
	p, err := AllowList("http://localhost:3000", "https://b.example", "HTTP://LOCALHOST:3000")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://b.example"}, p.Origins())
}

func TestAllowAll(t *testing.T) {
	p := AllowAll()
	assert.Equal(t, ModeAllowAll, p.Mode())
	assert.True(t, p.Permits("https://evil.example"))

	v, ok := p.AllowOrigin("https://evil.example")
	assert.True(t, ok)
	assert.Equal(t, "*", v)

	v, ok = p.AllowOrigin("")
	assert.True(t, ok)
	assert.Equal(t, "*", v)
}

func TestNew(t *testing.T) {
	_, err := New(ModeAllowList, nil)
	assert.Error(t, err)

	p, err := New(ModeAllowAll, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeAllowAll, p.Mode())

	_, err = New(Mode("bogus"), []string{"https://a.example"})
	assert.Error(t, err)
}

func TestZeroPolicyIsEmptyAllowList(t *testing.T) {
	var p Policy
	assert.Equal(t, ModeAllowList, p.Mode())
	assert.True(t, p.Permits(""))
	assert.False(t, p.Permits("https://a.example"))
}

func TestApplyPreflight(t *testing.T) {
	p, err := AllowList("https://trusted.example")
	require.NoError(t, err)

	h := http.Header{}
	p.ApplyPreflight(h, "https://trusted.example")
	assert.Equal(t, "https://trusted.example", h.Get(HeaderAllowOrigin))
	assert.Equal(t, "GET, OPTIONS", h.Get(HeaderAllowMethods))
	assert.Equal(t, "Content-Type", h.Get(HeaderAllowHeaders))
	assert.Equal(t, "86400", h.Get(HeaderMaxAge))
	assert.Equal(t, "Origin", h.Get("Vary"))

	h = http.Header{}
	p.ApplyPreflight(h, "https://evil.example")
	assert.Empty(t, h.Get(HeaderAllowOrigin))
	assert.Equal(t, "GET, OPTIONS", h.Get(HeaderAllowMethods))

	h = http.Header{}
	AllowAll().ApplyPreflight(h, "https://evil.example")
	assert.Equal(t, "*", h.Get(HeaderAllowOrigin))
	assert.Empty(t, h.Get("Vary"))
}

func TestAddVary(t *testing.T) {
	h := http.Header{}
	h.Set("Vary", "Accept-Encoding")
	addVary(h, "Origin")
	addVary(h, "origin")
	assert.Equal(t, "Accept-Encoding, Origin", h.Get("Vary"))
}
