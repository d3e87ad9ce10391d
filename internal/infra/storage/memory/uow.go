package memory

import (
	"context"
	"errors"

	"stayrates/internal/app/uow"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	RulesRepo    domainpricing.RuleSetRepository
	RateRowsRepo domainpricing.RateRowRepository
	AuditLog     domainpricing.ChangeLog
	Properties   domainproperty.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; the per-property lock
// middleware supplies the write serialization the saga relies on.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.RulesRepo == nil || f.RateRowsRepo == nil || f.AuditLog == nil || f.Properties == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		rules:      f.RulesRepo,
		rateRows:   f.RateRowsRepo,
		audit:      f.AuditLog,
		properties: f.Properties,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	rules      domainpricing.RuleSetRepository
	rateRows   domainpricing.RateRowRepository
	audit      domainpricing.ChangeLog
	properties domainproperty.Repository
}

func (u *Unit) Rules() domainpricing.RuleSetRepository {
	return u.rules
}

func (u *Unit) RateRows() domainpricing.RateRowRepository {
	return u.rateRows
}

func (u *Unit) Audit() domainpricing.ChangeLog {
	return u.audit
}

func (u *Unit) Properties() domainproperty.Repository {
	return u.properties
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
