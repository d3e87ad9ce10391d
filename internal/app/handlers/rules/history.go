package rules

import (
	"context"

	"stayrates/internal/app/dto"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/queries"
	"stayrates/internal/app/uow"
	domainproperty "stayrates/internal/domain/property"
)

const listHistoryKey = "pricing.history.list"

const defaultHistoryLimit = 50

type ListHistoryQuery struct {
	PropertyID string
	Limit      int
}

func (q ListHistoryQuery) Key() string { return listHistoryKey }

// ListHistoryHandler pages the audit trail, newest first.
type ListHistoryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHistoryHandler) Handle(ctx context.Context, query ListHistoryQuery) ([]dto.ChangeRecordView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	records, err := unit.Audit().ListByProperty(execCtx, domainproperty.ID(query.PropertyID), limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ChangeRecordView, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.MapChangeRecord(rec))
	}
	return out, nil
}

var _ queries.Handler[ListHistoryQuery, []dto.ChangeRecordView] = (*ListHistoryHandler)(nil)
