// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package netutil normalises browser origins and validates the upstream base URL.
package netutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidOrigin classifies origins that are not of the form scheme://host[:port].
var ErrInvalidOrigin = errors.New("invalid origin")

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// parseHTTP parses an absolute http(s) URL without userinfo and returns it
// with the scheme lowercased.
func parseHTTP(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return nil, fmt.Errorf("scheme %q not allowed (http or https)", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	if u.User != nil {
		return nil, errors.New("userinfo not allowed")
	}
	return u, nil
}

// normalizeHost lowercases a bare host and converts IDNs to their ASCII
// form. IP literals come back in canonical notation.
func normalizeHost(host string) (string, error) {
	host = strings.TrimSuffix(host, ".")
	switch {
	case host == "":
		return "", errors.New("empty host")
	case strings.ContainsAny(host, "/@%"):
		return "", fmt.Errorf("host %q contains a forbidden character", host)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	if strings.Contains(host, ":") {
		return "", fmt.Errorf("host %q must not carry a port", host)
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("host %q: %w", host, err)
	}
	return strings.ToLower(ascii), nil
}

// NormalizeOrigin returns the serialisation browsers send in the Origin
// header: lowercase scheme and host, IDNs in ASCII form, default ports
// dropped. "https://Lyle-Ventures.xyz:443" becomes "https://lyle-ventures.xyz".
func NormalizeOrigin(raw string) (string, error) {
	u, err := parseHTTP(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: %q must be scheme://host[:port]", ErrInvalidOrigin, raw)
	}
	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}

	port := u.Port()
	if port == defaultPorts[u.Scheme] {
		port = ""
	}
	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	return u.Scheme + "://" + host, nil
}

// ValidateUpstreamURL checks the FRED base URL and returns it without a
// trailing slash. Queries are refused so api_key can only come from the
// client's own parameters.
func ValidateUpstreamURL(raw string) (string, error) {
	u, err := parseHTTP(raw)
	if err != nil {
		return "", err
	}
	if u.RawQuery != "" || u.ForceQuery {
		return "", errors.New("query not allowed")
	}
	if u.Fragment != "" {
		return "", errors.New("fragment not allowed")
	}
	if _, err := normalizeHost(u.Hostname()); err != nil {
		return "", err
	}
	return strings.TrimRight(u.String(), "/"), nil
}
