// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fred

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrMissingSeriesID = errors.New("fred: series_id is required")
	ErrTransport       = errors.New("fred: upstream unreachable")
	ErrBadResponse     = errors.New("fred: unusable upstream response")
)

// UpstreamError is returned by Client.Observations. Status is zero when no
// response arrived. The message never contains the API key.
type UpstreamError struct {
	Sentinel  error
	Operation string
	Status    int
	Err       error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	if e.Operation != "" {
		b.WriteString(e.Operation)
		b.WriteString(": ")
	}
	b.WriteString(e.Sentinel.Error())
	if e.Status > 0 {
		b.WriteString(" (HTTP ")
		b.WriteString(strconv.Itoa(e.Status))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap matches both the sentinel and the cause, e.g. context.DeadlineExceeded.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}
