package calendarevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainevents "stayrates/internal/domain/calendarevents"
	"stayrates/internal/domain/shared/daterange"
)

// HTTPSource reads demand-relevant events from an external calendar service.
type HTTPSource struct {
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
}

type eventPayload struct {
	Name       string  `json:"name"`
	Impact     string  `json:"impact"`
	Multiplier float64 `json:"multiplier"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	City       string  `json:"city"`
	Region     string  `json:"region"`
	Nationwide bool    `json:"nationwide"`
}

func (s *HTTPSource) FindOverlapping(ctx context.Context, loc domainevents.Location, stay daterange.DateRange) ([]domainevents.Event, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("calendarevents: http client not configured")
	}
	if s.Endpoint == "" {
		return nil, errors.New("calendarevents: endpoint not configured")
	}

	query := url.Values{}
	query.Set("city", loc.City)
	query.Set("region", loc.Region)
	query.Set("from", stay.CheckIn.Format("2006-01-02"))
	query.Set("to", stay.CheckOut.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("calendarevents: calendar service timeout (%s)", s.Endpoint)
		} else {
			err = fmt.Errorf("calendarevents: calendar service unavailable (%s)", s.Endpoint)
		}
		s.logError("events request failed", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("calendarevents: calendar service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		s.logError("events returned error", err)
		return nil, err
	}

	var payloads []eventPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		s.logError("events decode failed", err)
		return nil, err
	}

	out := make([]domainevents.Event, 0, len(payloads))
	for _, p := range payloads {
		ev, err := mapEvent(p)
		if err != nil {
			s.logError("events entry skipped", err)
			continue
		}
		if ev.MatchesLocation(loc) && overlapsStay(ev, stay) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func mapEvent(p eventPayload) (domainevents.Event, error) {
	start, err := time.Parse("2006-01-02", p.StartDate)
	if err != nil {
		return domainevents.Event{}, fmt.Errorf("calendarevents: bad start date %q", p.StartDate)
	}
	end, err := time.Parse("2006-01-02", p.EndDate)
	if err != nil {
		return domainevents.Event{}, fmt.Errorf("calendarevents: bad end date %q", p.EndDate)
	}
	impact := domainevents.Impact(strings.ToLower(strings.TrimSpace(p.Impact)))
	switch impact {
	case domainevents.ImpactLow, domainevents.ImpactMedium, domainevents.ImpactHigh:
	default:
		impact = domainevents.ImpactLow
	}
	return domainevents.Event{
		Name:       p.Name,
		Impact:     impact,
		Multiplier: p.Multiplier,
		Start:      start,
		End:        end,
		City:       p.City,
		Region:     p.Region,
		Nationwide: p.Nationwide,
	}, nil
}

func overlapsStay(ev domainevents.Event, stay daterange.DateRange) bool {
	for _, night := range stay.Dates() {
		if ev.ActiveOn(night) {
			return true
		}
	}
	return false
}

func (s *HTTPSource) logError(msg string, err error) {
	if s.Logger != nil {
		s.Logger.Error(msg, "error", err)
	}
}
