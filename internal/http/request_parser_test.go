package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paytrack/internal/core"
	"paytrack/internal/period"
)

func TestParsePeriodRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    period.Request
		wantErr bool
	}{
		{name: "defaults to week", query: url.Values{}, want: period.Request{Kind: period.Week}},
		{name: "case insensitive", query: url.Values{"period": {" Month "}}, want: period.Request{Kind: period.Month}},
		{
			name:  "custom keeps dates",
			query: url.Values{"period": {"custom"}, "startDate": {" 2024-01-01"}, "endDate": {"2024-01-31 "}},
			want:  period.Request{Kind: period.Custom, StartDate: "2024-01-01", EndDate: "2024-01-31"},
		},
		{name: "unknown kind", query: url.Values{"period": {"year"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriodRequest(tt.query)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	decodeBody := func(body string) (confirmInput, error) {
		var in confirmInput
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSON(httptest.NewRecorder(), req, &in)
		return in, err
	}

	in, err := decodeBody(`{"rowsToImport":[2,5]}`)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, in.RowsToImport)

	_, err = decodeBody("")
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "request body is required", verr.Fields["body"])

	_, err = decodeBody(`{"rowsToImport":`)
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields["body"], "invalid JSON")

	_, err = decodeBody(`{"rowsToImport":[` + strings.Repeat("1,", maxJSONBody) + `1]}`)
	var tooBig *http.MaxBytesError
	assert.True(t, errors.As(err, &tooBig))
}

func TestParseWeekdays(t *testing.T) {
	got, err := ParseWeekdays([]string{"Monday", "wed", " FRI ", "mon"})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, got)

	for _, bad := range []string{"", "mo", "mondays", "funday"} {
		_, err := ParseWeekdays([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  cafe  ", "cafe"},
		{"night\x00shift", "nightshift"},
		{"line1\nline2", "line1\nline2"},
		{"tab\there", "tab\there"},
		{"bell\x07", "bell"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeInput(tt.input))
	}
}
