// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fred

import (
	"errors"
	"net/url"
)

const redacted = "REDACTED"

// RedactURL replaces the api_key query value so the URL can be logged or traced.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url-redacted"
	}
	return redactParsed(u)
}

func redactParsed(u *url.URL) string {
	cp := *u
	cp.User = nil
	q := cp.Query()
	if q.Has(ParamAPIKey) {
		q.Set(ParamAPIKey, redacted)
		cp.RawQuery = q.Encode()
	}
	return cp.String()
}

// redactError rewrites the URL carried by net/http client errors in place.
func redactError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = RedactURL(uerr.URL)
	}
	return err
}
