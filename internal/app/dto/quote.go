package dto

import (
	"time"

	"stayrates/internal/domain/pricing"
)

const dateLayout = "2006-01-02"

type QuoteFactor struct {
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
}

type QuoteNight struct {
	Date       string        `json:"date"`
	BasePrice  int64         `json:"base_price"`
	Factors    []QuoteFactor `json:"factors,omitempty"`
	FinalPrice int64         `json:"final_price"`
	Source     string        `json:"source"`
}

type BlockedRange struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type QuoteUnavailable struct {
	Reason        string         `json:"reason"`
	BlockedRanges []BlockedRange `json:"blocked_ranges"`
}

type QuoteResponse struct {
	PropertyID  string            `json:"property_id"`
	Nights      int               `json:"nights"`
	PerNight    []QuoteNight      `json:"per_night_breakdown"`
	TotalPrice  int64             `json:"total_price"`
	Currency    string            `json:"currency"`
	Unavailable *QuoteUnavailable `json:"unavailable,omitempty"`
}

func MapQuote(q pricing.Quote) QuoteResponse {
	resp := QuoteResponse{
		PropertyID: string(q.PropertyID),
		Nights:     q.Nights,
		TotalPrice: q.Total.Amount,
		Currency:   q.Currency,
	}
	for _, night := range q.PerNight {
		factors := make([]QuoteFactor, 0, len(night.Factors))
		for _, f := range night.Factors {
			factors = append(factors, QuoteFactor{Name: f.Name, Factor: f.Factor})
		}
		resp.PerNight = append(resp.PerNight, QuoteNight{
			Date:       night.Date.Format(dateLayout),
			BasePrice:  night.Base.Amount,
			Factors:    factors,
			FinalPrice: night.Final.Amount,
			Source:     string(night.Source),
		})
	}
	if q.Unavailable != nil {
		un := &QuoteUnavailable{Reason: q.Unavailable.Reason}
		for _, b := range q.Unavailable.Blocked {
			un.BlockedRanges = append(un.BlockedRanges, BlockedRange{
				From:   b.Span.Start.Format(dateLayout),
				To:     b.Span.End.Format(dateLayout),
				Reason: b.Reason,
			})
		}
		resp.Unavailable = un
	}
	return resp
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func ParseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}
