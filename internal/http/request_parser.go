package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"tally/internal/core"
)

// maxBodySize bounds request bodies; backups can be large, everything else
// is small.
const (
	maxBodySize       = 1 << 20  // 1 MiB
	maxImportBodySize = 32 << 20 // 32 MiB
)

// decodeJSON parses a request body into dst, rejecting unknown fields and
// trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

// parseExpenseFilters reads the filter query parameters. Unset parameters
// mean no constraint; malformed dates and amounts are reported, not
// silently dropped.
func parseExpenseFilters(q url.Values) (core.ExpenseFilters, error) {
	f := core.ExpenseFilters{
		Search:     strings.TrimSpace(q.Get("search")),
		CategoryID: strings.TrimSpace(q.Get("categoryId")),
		Payment:    strings.TrimSpace(q.Get("payment")),
	}

	if v := q.Get("from"); v != "" {
		if err := f.DateFrom.UnmarshalJSON([]byte(`"` + v + `"`)); err != nil {
			return f, fmt.Errorf("invalid from date %q", v)
		}
	}
	if v := q.Get("to"); v != "" {
		if err := f.DateTo.UnmarshalJSON([]byte(`"` + v + `"`)); err != nil {
			return f, fmt.Errorf("invalid to date %q", v)
		}
	}
	if v := q.Get("min"); v != "" {
		m, err := core.ParseAmount(v)
		if err != nil {
			return f, fmt.Errorf("invalid min amount %q", v)
		}
		f.AmountMin = &m
	}
	if v := q.Get("max"); v != "" {
		m, err := core.ParseAmount(v)
		if err != nil {
			return f, fmt.Errorf("invalid max amount %q", v)
		}
		f.AmountMax = &m
	}
	return f, nil
}

// parseSort reads sortBy/sortDir, defaulting to newest-first.
func parseSort(q url.Values) (core.SortField, core.SortDirection, error) {
	field := core.SortByDate
	switch v := q.Get("sortBy"); v {
	case "", "date":
	case "amount":
		field = core.SortByAmount
	case "description":
		field = core.SortByDescription
	default:
		return "", "", fmt.Errorf("invalid sortBy %q", v)
	}

	dir := core.SortDesc
	switch v := q.Get("sortDir"); v {
	case "", "desc":
	case "asc":
		dir = core.SortAsc
	default:
		return "", "", fmt.Errorf("invalid sortDir %q", v)
	}
	return field, dir, nil
}
