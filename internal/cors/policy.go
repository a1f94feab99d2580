// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cors decides which browser origins receive cross-origin permissions.
package cors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/lyle-ventures/fredproxy/internal/netutil"
)

// Mode selects how a Policy treats request origins.
type Mode string

const (
	// ModeAllowList grants CORS only to configured origins and rejects others.
	ModeAllowList Mode = "allow-list"
	// ModeAllowAll grants CORS to every origin with a wildcard.
	ModeAllowAll Mode = "allow-all"
)

// Header names and fixed preflight values.
const (
	HeaderAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAllowMethods = "Access-Control-Allow-Methods"
	HeaderAllowHeaders = "Access-Control-Allow-Headers"
	HeaderMaxAge       = "Access-Control-Max-Age"

	AllowedMethods = "GET, OPTIONS"
	AllowedHeaders = "Content-Type"
	// PreflightMaxAge is 24 hours in seconds.
	PreflightMaxAge = "86400"
)

// DefaultOrigins is the allow-list used when none is configured.
var DefaultOrigins = []string{
	"https://lyle-ventures.xyz",
	"https://www.lyle-ventures.xyz",
	"http://localhost:8080",
	"http://localhost:3000",
}

// ParseMode parses a mode name. The empty string selects ModeAllowList.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAllowList:
		return ModeAllowList, nil
	case ModeAllowAll:
		return ModeAllowAll, nil
	default:
		return "", fmt.Errorf("unknown cors mode %q (supported: %s, %s)", s, ModeAllowList, ModeAllowAll)
	}
}

// Policy is an immutable origin policy. The zero value is an empty allow-list
// that permits only requests without an Origin header.
type Policy struct {
	mode    Mode
	allowed map[string]struct{}
	origins []string
}

// AllowAll returns a policy that grants CORS to every origin.
func AllowAll() Policy {
	return Policy{mode: ModeAllowAll}
}

// AllowList returns a policy that grants CORS only to the given origins.
// Every origin must be of the form scheme://host[:port].
func AllowList(origins ...string) (Policy, error) {
	p := Policy{
		mode:    ModeAllowList,
		allowed: make(map[string]struct{}, len(origins)),
	}
	for _, o := range origins {
		normalized, err := netutil.NormalizeOrigin(o)
		if err != nil {
			return Policy{}, err
		}
		if _, dup := p.allowed[normalized]; dup {
			continue
		}
		p.allowed[normalized] = struct{}{}
		p.origins = append(p.origins, normalized)
	}
	sort.Strings(p.origins)
	return p, nil
}

// New builds a policy for mode. Origins are ignored for ModeAllowAll.
func New(mode Mode, origins []string) (Policy, error) {
	switch mode {
	case ModeAllowAll:
		return AllowAll(), nil
	case ModeAllowList, "":
		if len(origins) == 0 {
			return Policy{}, fmt.Errorf("cors mode %s requires at least one origin", ModeAllowList)
		}
		return AllowList(origins...)
	default:
		return Policy{}, fmt.Errorf("unknown cors mode %q", mode)
	}
}

// Mode reports the policy mode.
func (p Policy) Mode() Mode {
	if p.mode == "" {
		return ModeAllowList
	}
	return p.mode
}

// Origins returns the normalised allow-list in sorted order.
func (p Policy) Origins() []string {
	out := make([]string, len(p.origins))
	copy(out, p.origins)
	return out
}

// Permits reports whether a request carrying origin may proceed.
// Requests without an Origin header (same-origin, curl) are always permitted.
func (p Policy) Permits(origin string) bool {
	if origin == "" || p.Mode() == ModeAllowAll {
		return true
	}
	return p.member(origin)
}

// AllowOrigin returns the Access-Control-Allow-Origin value for origin.
// Allow-all answers "*"; allow-list echoes origin only for members.
func (p Policy) AllowOrigin(origin string) (string, bool) {
	if p.Mode() == ModeAllowAll {
		return "*", true
	}
	if origin != "" && p.member(origin) {
		return origin, true
	}
	return "", false
}

// Apply sets the Access-Control-Allow-Origin header for a simple response.
func (p Policy) Apply(h http.Header, origin string) {
	if p.Mode() == ModeAllowList {
		addVary(h, "Origin")
	}
	if v, ok := p.AllowOrigin(origin); ok {
		h.Set(HeaderAllowOrigin, v)
	}
}

// ApplyPreflight sets the headers answering a CORS preflight request.
func (p Policy) ApplyPreflight(h http.Header, origin string) {
	p.Apply(h, origin)
	h.Set(HeaderAllowMethods, AllowedMethods)
	h.Set(HeaderAllowHeaders, AllowedHeaders)
	h.Set(HeaderMaxAge, PreflightMaxAge)
}

func (p Policy) member(origin string) bool {
	normalized, err := netutil.NormalizeOrigin(origin)
	if err != nil {
		return false
	}
	_, ok := p.allowed[normalized]
	return ok
}

// addVary appends value to the Vary header unless already present.
func addVary(h http.Header, value string) {
	vary := h.Get("Vary")
	if vary == "" {
		h.Set("Vary", value)
		return
	}
	for _, part := range strings.Split(vary, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return
		}
	}
	h.Set("Vary", vary+", "+value)
}
