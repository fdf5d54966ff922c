package common

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Filter is one column filter from a browse request
type Filter struct {
	Column string      `json:"column"`
	Value  interface{} `json:"value"`
}

// Filters keeps filters in the order the client sent them
type Filters []Filter

// ParseFilters reads a JSON object of column -> value pairs.
// Document order is kept, which encoding/json maps would lose.
func ParseFilters(raw string) (Filters, error) {
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("filters must be valid JSON")
	}
	result := gjson.Parse(raw)
	if result.Type == gjson.Null {
		return nil, nil
	}
	if !result.IsObject() {
		return nil, fmt.Errorf("filters must be a JSON object")
	}

	var filters Filters
	result.ForEach(func(key, value gjson.Result) bool {
		filters = append(filters, Filter{Column: key.String(), Value: value.Value()})
		return true
	})
	return filters, nil
}

// Filter statuses reported for each browse filter
const (
	FilterApplied   = "applied"   // constrained by the controller itself
	FilterDelegated = "delegated" // handed to the field type's Query
	FilterIgnored   = "ignored"   // left the query unchanged
)

// FilterOutcome records what happened to one filter
type FilterOutcome struct {
	Column string `json:"column"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Response structures
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Metadata *Metadata   `json:"metadata,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
}

type Metadata struct {
	Total    int64 `json:"total"`
	Count    int64 `json:"count"`
	Filtered int64 `json:"filtered"`
	Limit    int   `json:"limit"`
	Offset   int   `json:"offset"`

	Filters []FilterOutcome `json:"filters,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}
