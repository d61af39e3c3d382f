// This file holds the parsing and sanitising of request input shared by the handlers.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paytrack/internal/core"
	"paytrack/internal/period"
)

const maxJSONBody = 1 << 20

// ParsePeriodRequest reads period, startDate and endDate from a query string.
func ParsePeriodRequest(query url.Values) (period.Request, error) {
	kind, err := period.ParseKind(query.Get("period"))
	if err != nil {
		return period.Request{}, err
	}
	return period.Request{
		Kind:      kind,
		StartDate: strings.TrimSpace(query.Get("startDate")),
		EndDate:   strings.TrimSpace(query.Get("endDate")),
	}, nil
}

// DecodeJSON decodes a JSON request body into v. Malformed bodies are
// reported as validation errors on the "body" field.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return err
		case errors.Is(err, io.EOF):
			return core.NewValidationError("body", "request body is required")
		default:
			return core.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
		}
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays accepts full or three-letter English weekday names in any case.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	seen := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if len(n) < 3 {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		wd, ok := weekdayNames[n[:3]]
		if !ok || (len(n) > 3 && !strings.EqualFold(wd.String(), n)) {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	return out, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
