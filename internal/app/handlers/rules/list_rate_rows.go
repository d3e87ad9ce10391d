package rules

import (
	"context"

	"stayrates/internal/app/dto"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/queries"
	"stayrates/internal/app/uow"
	domainproperty "stayrates/internal/domain/property"
)

const listRateRowsKey = "pricing.rate_rows.list"

type ListRateRowsQuery struct {
	PropertyID string
}

func (q ListRateRowsQuery) Key() string { return listRateRowsKey }

// ListRateRowsHandler serves the flattened rate projection for admin review.
type ListRateRowsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRateRowsHandler) Handle(ctx context.Context, query ListRateRowsQuery) ([]dto.RateRowView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	rows, err := unit.RateRows().ListByProperty(execCtx, domainproperty.ID(query.PropertyID))
	if err != nil {
		return nil, err
	}
	return dto.MapRateRows(rows), nil
}

var _ queries.Handler[ListRateRowsQuery, []dto.RateRowView] = (*ListRateRowsHandler)(nil)
