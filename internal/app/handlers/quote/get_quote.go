package quote

import (
	"context"
	"log/slog"

	"stayrates/internal/app/dto"
	"stayrates/internal/app/middleware"
	"stayrates/internal/app/queries"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
)

const getQuoteKey = "pricing.quote"

type GetQuoteQuery struct {
	PropertyID   string
	RoomCategory string
	CheckIn      string
	CheckOut     string
	Guests       int
	EventPolicy  string
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

func (q GetQuoteQuery) Validate() error {
	ve := &pricing.ValidationError{}
	if q.PropertyID == "" {
		ve.Add("property_id", "property id is required")
	}
	if _, err := q.stayRange(); err != nil {
		ve.Add("dates", "check_out must be a valid date after check_in")
	}
	if q.Guests < 0 {
		ve.Add("guests", "must not be negative")
	}
	switch pricing.EventPolicy(q.EventPolicy) {
	case "", pricing.EventPolicyHighest, pricing.EventPolicyWeighted:
	default:
		ve.Add("event_policy", "must be %q or %q", pricing.EventPolicyHighest, pricing.EventPolicyWeighted)
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func (q GetQuoteQuery) stayRange() (daterange.DateRange, error) {
	checkIn, err := dto.ParseDate(q.CheckIn)
	if err != nil {
		return daterange.DateRange{}, err
	}
	checkOut, err := dto.ParseDate(q.CheckOut)
	if err != nil {
		return daterange.DateRange{}, err
	}
	return daterange.New(checkIn, checkOut)
}

// GetQuoteHandler serves guest-facing price quotes. It is a thin shell over
// the pricing composer; it never touches rule state.
type GetQuoteHandler struct {
	Logger *slog.Logger
	Quoter pricing.Quoter
}

func (h *GetQuoteHandler) Handle(ctx context.Context, query GetQuoteQuery) (dto.QuoteResponse, error) {
	stay, err := query.stayRange()
	if err != nil {
		ve := &pricing.ValidationError{}
		ve.Add("dates", "check_out must be a valid date after check_in")
		return dto.QuoteResponse{}, ve
	}
	policy := pricing.EventPolicy(query.EventPolicy)
	if policy == "" {
		policy = pricing.EventPolicyHighest
	}
	result, err := h.Quoter.Quote(ctx, pricing.QuoteInput{
		PropertyID:   property.ID(query.PropertyID),
		RoomCategory: query.RoomCategory,
		Range:        stay,
		Guests:       query.Guests,
		EventPolicy:  policy,
	})
	if err != nil {
		return dto.QuoteResponse{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("quote served",
			"property_id", query.PropertyID,
			"nights", result.Nights,
			"available", result.Unavailable == nil,
		)
	}
	return dto.MapQuote(result), nil
}

var _ queries.Handler[GetQuoteQuery, dto.QuoteResponse] = (*GetQuoteHandler)(nil)
var _ middleware.SelfValidating = GetQuoteQuery{}
