package uow

import (
	"context"

	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
)

// UnitOfWork coordinates the pricing stores inside a transaction boundary:
// the rule document, its flattened projection, the audit log and the
// property catalogue must commit or roll back together.
type UnitOfWork interface {
	Rules() domainpricing.RuleSetRepository
	RateRows() domainpricing.RateRowRepository
	Audit() domainpricing.ChangeLog
	Properties() domainproperty.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
