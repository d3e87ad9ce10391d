package availability

import (
	"context"
	"errors"
	"log/slog"

	"stayrates/internal/app/dto"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/policies"
	"stayrates/internal/app/queries"
	"stayrates/internal/app/uow"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	PropertyID string
	From       string
	To         string
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

func (q GetCalendarQuery) Validate() error {
	ve := &domainpricing.ValidationError{}
	if q.PropertyID == "" {
		ve.Add("property_id", "property id is required")
	}
	if _, err := q.window(); err != nil {
		ve.Add("dates", "to must be a valid date after from")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func (q GetCalendarQuery) window() (daterange.DateRange, error) {
	from, err := dto.ParseDate(q.From)
	if err != nil {
		return daterange.DateRange{}, err
	}
	to, err := dto.ParseDate(q.To)
	if err != nil {
		return daterange.DateRange{}, err
	}
	return daterange.New(from, to)
}

// GetCalendarHandler merges the host-configured blocks with booked stays
// from the external ledger into one unavailability view. Ledger failures
// degrade to blocks-only rather than failing the request.
type GetCalendarHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
	Ledger     policies.BookingLedgerPort
}

func (h *GetCalendarHandler) Handle(ctx context.Context, query GetCalendarQuery) (dto.CalendarView, error) {
	window, err := query.window()
	if err != nil {
		ve := &domainpricing.ValidationError{}
		ve.Add("dates", "to must be a valid date after from")
		return dto.CalendarView{}, ve
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	view := dto.CalendarView{PropertyID: query.PropertyID}
	id := domainproperty.ID(query.PropertyID)

	rs, err := unit.Rules().ByProperty(execCtx, id)
	if err != nil && !errors.Is(err, domainpricing.ErrRuleSetNotFound) {
		return dto.CalendarView{}, err
	}
	if rs != nil {
		for _, b := range rs.BlockedDates {
			if !b.Active {
				continue
			}
			if !b.Span.OverlapsStay(window) {
				continue
			}
			view.Blocks = append(view.Blocks, dto.BlockedRange{
				From:   dto.FormatDate(b.Span.Start),
				To:     dto.FormatDate(b.Span.End),
				Reason: b.Reason,
			})
		}
	}

	if h.Ledger != nil {
		stays, err := h.Ledger.FindOverlapping(execCtx, id, window)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("booking ledger lookup failed, calendar shows blocks only",
					"property_id", query.PropertyID, "error", err)
			}
		} else {
			for _, stay := range stays {
				if !stay.Status.Occupying() {
					continue
				}
				view.Blocks = append(view.Blocks, dto.BlockedRange{
					From:   dto.FormatDate(stay.CheckIn),
					To:     dto.FormatDate(stay.CheckOut),
					Reason: "booked",
				})
			}
		}
	}
	return view, nil
}

var _ queries.Handler[GetCalendarQuery, dto.CalendarView] = (*GetCalendarHandler)(nil)
