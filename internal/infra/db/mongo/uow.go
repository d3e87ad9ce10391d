package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayrates/internal/app/uow"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	RulesRepo    domainpricing.RuleSetRepository
	RateRowsRepo domainpricing.RateRowRepository
	AuditLog     domainpricing.ChangeLog
	Properties   domainproperty.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:         f.DB,
		session:    session,
		rules:      f.RulesRepo,
		rateRows:   f.RateRowsRepo,
		audit:      f.AuditLog,
		properties: f.Properties,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
