package calendarevents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainevents "stayrates/internal/domain/calendarevents"
	"stayrates/internal/domain/shared/daterange"
)

func testStay(t *testing.T) daterange.DateRange {
	t.Helper()
	stay, err := daterange.New(
		time.Date(2026, 11, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 11, 12, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return stay
}

func TestHTTPSourceFindOverlapping(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"city":   q.Get("city"),
			"region": q.Get("region"),
			"from":   q.Get("from"),
			"to":     q.Get("to"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"diwali mela","impact":"HIGH","multiplier":1.5,"start_date":"2026-11-09","end_date":"2026-11-11","city":"Jaipur"},
			{"name":"trade expo","impact":"medium","multiplier":1.2,"start_date":"2026-11-10","end_date":"2026-11-10","city":"Mumbai"},
			{"name":"national holiday","impact":"low","multiplier":1.1,"start_date":"2026-11-20","end_date":"2026-11-21","nationwide":true},
			{"name":"broken","impact":"low","multiplier":1.1,"start_date":"not-a-date","end_date":"2026-11-10"}
		]`))
	}))
	defer server.Close()

	source := &HTTPSource{Endpoint: server.URL, Client: server.Client()}
	events, err := source.FindOverlapping(context.Background(), domainevents.Location{City: "Jaipur", Region: "Rajasthan"}, testStay(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"city":   "Jaipur",
		"region": "Rajasthan",
		"from":   "2026-11-10",
		"to":     "2026-11-12",
	}, gotQuery)

	// Mumbai event fails the location match, the holiday falls outside the
	// stay, and the unparseable entry is skipped rather than failing the call.
	require.Len(t, events, 1)
	assert.Equal(t, "diwali mela", events[0].Name)
	assert.Equal(t, domainevents.ImpactHigh, events[0].Impact, "impact strings are normalized case-insensitively")
	assert.InDelta(t, 1.5, events[0].Multiplier, 1e-9)
}

func TestHTTPSourceUnknownImpactDefaultsToLow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"mystery","impact":"catastrophic","multiplier":1.3,"start_date":"2026-11-10","end_date":"2026-11-11","nationwide":true}]`))
	}))
	defer server.Close()

	source := &HTTPSource{Endpoint: server.URL, Client: server.Client()}
	events, err := source.FindOverlapping(context.Background(), domainevents.Location{City: "Jaipur"}, testStay(t))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domainevents.ImpactLow, events[0].Impact)
}

func TestHTTPSourceUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	source := &HTTPSource{Endpoint: server.URL, Client: server.Client()}
	_, err := source.FindOverlapping(context.Background(), domainevents.Location{}, testStay(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 502")
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestHTTPSourceNotConfigured(t *testing.T) {
	_, err := (&HTTPSource{Client: http.DefaultClient}).FindOverlapping(context.Background(), domainevents.Location{}, testStay(t))
	assert.Error(t, err)

	_, err = (&HTTPSource{Endpoint: "http://localhost:1"}).FindOverlapping(context.Background(), domainevents.Location{}, testStay(t))
	assert.Error(t, err)
}
