package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayrates/internal/app/commands"
	"stayrates/internal/app/dto"
	"stayrates/internal/app/middleware"
	"stayrates/internal/app/outbox"
	"stayrates/internal/app/saga"
	"stayrates/internal/app/uow"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
)

const saveRuleSetKey = "pricing.rules.save"

var ErrUnitOfWorkRequired = errors.New("rules: unit of work required")

type SaveRuleSetCommand struct {
	CommandID       string
	PropertyID      string
	Actor           string
	Payload         dto.RuleSetPayload
	IdempotencyKeyV string
}

func (c SaveRuleSetCommand) Key() string { return saveRuleSetKey }

func (c SaveRuleSetCommand) PropertyKey() string { return c.PropertyID }

func (c SaveRuleSetCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SaveRuleSetCommand) ResultPrototype() any { return &SaveRuleSetResult{} }

type SaveRuleSetResult struct {
	RuleSet  dto.RuleSetView `json:"rule_set"`
	Warnings []string        `json:"warnings,omitempty"`
}

// SaveRuleSetHandler is the pricing transaction manager: the only writer of
// the rule store. Each edit walks Validating, Snapshotting, Applying,
// Syncing and AuditLogging; any failure after Applying compensates back to
// the before image so the rule document and its projection never diverge.
type SaveRuleSetHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *SaveRuleSetHandler) Handle(ctx context.Context, cmd SaveRuleSetCommand) (*SaveRuleSetResult, error) {
	newSet, err := cmd.Payload.ToDomain(domainproperty.ID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	return applyRuleSet(ctx, applyRequest{
		Logger:     h.Logger,
		UoWFactory: h.UoWFactory,
		Outbox:     h.Outbox,
		Encoder:    h.Encoder,
		Actor:      cmd.Actor,
		NewSet:     newSet,
	})
}

type applyRequest struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Actor      string
	NewSet     *domainpricing.RuleSet
}

// applyRuleSet runs the shared edit saga; the bulk-import commit reuses it
// so every write path carries the same guarantees.
func applyRuleSet(ctx context.Context, req applyRequest) (*SaveRuleSetResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if req.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = req.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	newSet := req.NewSet
	// Validating: nothing is touched until the document checks out.
	if err := newSet.Validate(); err != nil {
		return nil, err
	}
	prop, err := unit.Properties().ByID(ctx, newSet.PropertyID)
	if err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			ve := &domainpricing.ValidationError{}
			ve.Add("property_id", "unknown property %q", newSet.PropertyID)
			return nil, ve
		}
		return nil, err
	}

	now := time.Now().UTC()
	var before *domainpricing.RuleSet
	var beforeRows []domainpricing.RateRow

	snapshot := saga.FuncStep{
		StepName: "snapshotting",
		Run: func(ctx context.Context) error {
			current, err := unit.Rules().ByProperty(ctx, newSet.PropertyID)
			if err != nil && !errors.Is(err, domainpricing.ErrRuleSetNotFound) {
				return err
			}
			before = current.Clone()
			rows, err := unit.RateRows().ListByProperty(ctx, newSet.PropertyID)
			if err != nil {
				return err
			}
			beforeRows = rows
			return nil
		},
	}

	apply := saga.FuncStep{
		StepName: "applying",
		Run: func(ctx context.Context) error {
			if before != nil {
				newSet.Version = before.Version + 1
			} else {
				newSet.Version = 1
			}
			newSet.UpdatedAt = now
			return unit.Rules().Save(ctx, newSet)
		},
		Undo: func(ctx context.Context) error {
			if before == nil {
				return unit.Rules().Delete(ctx, newSet.PropertyID)
			}
			return unit.Rules().Save(ctx, before)
		},
	}

	sync := saga.FuncStep{
		StepName: "syncing",
		Run: func(ctx context.Context) error {
			rows := domainpricing.BuildRateRows(prop, newSet)
			if err := unit.RateRows().ReplaceForProperty(ctx, newSet.PropertyID, rows); err != nil {
				return fmt.Errorf("%w: %v", domainpricing.ErrConsistencySync, err)
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			return unit.RateRows().ReplaceForProperty(ctx, newSet.PropertyID, beforeRows)
		},
	}

	audit := saga.FuncStep{
		StepName: "audit_logging",
		Run: func(ctx context.Context) error {
			rec := domainpricing.NewChangeRecord(uuid.NewString(), req.Actor, before, newSet.Clone(), now)
			if err := unit.Audit().Append(ctx, rec); err != nil {
				// Best-effort: a lost audit record never rolls back a
				// committed pricing change.
				if req.Logger != nil {
					req.Logger.Error("pricing audit write failed", "property_id", newSet.PropertyID, "error", err)
				}
			}
			return nil
		},
	}

	runner := saga.Runner{Logger: req.Logger}
	if err := runner.Run(ctx, "pricing_edit", snapshot, apply, sync, audit); err != nil {
		return nil, err
	}

	changeType := domainpricing.ChangeUpdate
	if before == nil {
		changeType = domainpricing.ChangeCreate
	}
	newSet.Record(domainpricing.RulesUpdated{
		PropertyID: string(newSet.PropertyID),
		ChangeType: changeType,
		Version:    newSet.Version,
		At:         now,
	})
	pending := newSet.PendingEvents()
	newSet.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, req.Outbox, req.Encoder, pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if req.Logger != nil {
		req.Logger.Info("pricing rules committed",
			"property_id", newSet.PropertyID,
			"version", newSet.Version,
			"change_type", changeType,
			"actor", req.Actor,
		)
	}
	return &SaveRuleSetResult{
		RuleSet:  dto.MapRuleSet(newSet),
		Warnings: newSet.Warnings(),
	}, nil
}

var _ commands.Handler[SaveRuleSetCommand, *SaveRuleSetResult] = (*SaveRuleSetHandler)(nil)
var _ middleware.IdempotentCommand = SaveRuleSetCommand{}
var _ middleware.PropertyScoped = SaveRuleSetCommand{}
