// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fred

import (
	"net/url"
)

// Query parameter names shared by the inbound and upstream requests.
const (
	ParamSeriesID         = "series_id"
	ParamLimit            = "limit"
	ParamObservationStart = "observation_start"
	ParamObservationEnd   = "observation_end"
	ParamAPIKey           = "api_key"
	ParamFileType         = "file_type"
	ParamSortOrder        = "sort_order"
)

// DefaultLimit is sent when the caller does not supply a limit.
const DefaultLimit = "10"

// ObservationsQuery describes one series/observations request.
// Values are passed to the upstream verbatim.
type ObservationsQuery struct {
	SeriesID         string
	Limit            string
	ObservationStart string
	ObservationEnd   string
}

// QueryFromValues extracts the caller-controlled parameters from an inbound query string.
func QueryFromValues(v url.Values) ObservationsQuery {
	return ObservationsQuery{
		SeriesID:         v.Get(ParamSeriesID),
		Limit:            v.Get(ParamLimit),
		ObservationStart: v.Get(ParamObservationStart),
		ObservationEnd:   v.Get(ParamObservationEnd),
	}
}

// values renders q plus the fixed parameters. apiKey is always taken from the
// server side; nothing in q can override it.
func (q ObservationsQuery) values(apiKey string) url.Values {
	v := url.Values{}
	v.Set(ParamSeriesID, q.SeriesID)
	v.Set(ParamAPIKey, apiKey)
	v.Set(ParamFileType, "json")
	v.Set(ParamSortOrder, "desc")
	limit := q.Limit
	if limit == "" {
		limit = DefaultLimit
	}
	v.Set(ParamLimit, limit)
	if q.ObservationStart != "" {
		v.Set(ParamObservationStart, q.ObservationStart)
	}
	if q.ObservationEnd != "" {
		v.Set(ParamObservationEnd, q.ObservationEnd)
	}
	return v
}
