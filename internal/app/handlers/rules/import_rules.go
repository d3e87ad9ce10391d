package rules

import (
	"bytes"
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
	"stayrates/internal/app/policies"
	"stayrates/internal/app/uow"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/rateimport"
	"stayrates/internal/domain/shared/money"
)

const (
	parseRateSheetKey  = "pricing.rates.import"
	commitRateSheetKey = "pricing.rates.import.commit"
)

// ParseRateSheetCommand validates an uploaded rate sheet without persisting
// anything. The transport layer has already decoded the workbook into rows.
type ParseRateSheetCommand struct {
	PropertyID  string
	Actor       string
	FileName    string
	ContentType string
	Records     [][]string
	Raw         []byte
}

func (c ParseRateSheetCommand) Key() string { return parseRateSheetKey }

// ParseRateSheetHandler runs the best-effort parse and archives the original
// upload for traceability. Archive failures are logged, never returned: the
// admin still gets the parse report.
type ParseRateSheetHandler struct {
	Logger  *slog.Logger
	Archive policies.ImportArchivePort
}

func (h *ParseRateSheetHandler) Handle(ctx context.Context, cmd ParseRateSheetCommand) (dto.ImportResponse, error) {
	result := rateimport.Parse(cmd.Records)
	importID := uuid.NewString()

	archiveURL := ""
	if h.Archive != nil && len(cmd.Raw) > 0 {
		key := fmt.Sprintf("imports/%s/%s/%s", cmd.PropertyID, time.Now().UTC().Format("2006/01/02"), importID+"-"+cmd.FileName)
		url, err := h.Archive.Archive(ctx, key, bytes.NewReader(cmd.Raw), cmd.ContentType)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("rate sheet archive failed", "property_id", cmd.PropertyID, "file", cmd.FileName, "error", err)
			}
		} else {
			archiveURL = url
		}
	}

	if h.Logger != nil {
		h.Logger.Info("rate sheet parsed",
			"property_id", cmd.PropertyID,
			"import_id", importID,
			"total_rows", result.Summary.TotalRows,
			"valid_rows", result.Summary.ValidRows,
			"invalid_rows", result.Summary.InvalidRows,
			"actor", cmd.Actor,
		)
	}
	return dto.MapImportResult(importID, archiveURL, result), nil
}

// CommitRateSheetCommand applies previously parsed rows to one property's
// rate table through the pricing transaction saga.
type CommitRateSheetCommand struct {
	PropertyID      string
	Actor           string
	Rows            []dto.ImportRowPayload
	IdempotencyKeyV string
}

func (c CommitRateSheetCommand) Key() string { return commitRateSheetKey }

func (c CommitRateSheetCommand) PropertyKey() string { return c.PropertyID }

func (c CommitRateSheetCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CommitRateSheetCommand) ResultPrototype() any { return &SaveRuleSetResult{} }

func (c CommitRateSheetCommand) Validate() error {
	ve := &domainpricing.ValidationError{}
	if c.PropertyID == "" {
		ve.Add("property_id", "property id is required")
	}
	if len(c.Rows) == 0 {
		ve.Add("rows", "at least one valid row is required")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

type CommitRateSheetHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CommitRateSheetHandler) Handle(ctx context.Context, cmd CommitRateSheetCommand) (*SaveRuleSetResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}
	current, err := unit.Rules().ByProperty(ctx, domainproperty.ID(cmd.PropertyID))
	if err != nil {
		if errors.Is(err, domainpricing.ErrRuleSetNotFound) {
			ve := &domainpricing.ValidationError{}
			ve.Add("property_id", "base price must be configured before importing rates")
			return nil, ve
		}
		return nil, err
	}

	table, err := planRatesFromPayload(cmd.PropertyID, current.Currency, cmd.Rows)
	if err != nil {
		return nil, err
	}

	newSet := current.Clone()
	newSet.ReplaceRateTable(table)
	return applyRuleSet(ctx, applyRequest{
		Logger:     h.Logger,
		UoWFactory: h.UoWFactory,
		Outbox:     h.Outbox,
		Encoder:    h.Encoder,
		Actor:      cmd.Actor,
		NewSet:     newSet,
	})
}

// planRatesFromPayload converts the echoed-back parse rows into rate-table
// entries, re-validating through the same parser rules.
func planRatesFromPayload(propertyID, currency string, rows []dto.ImportRowPayload) ([]domainpricing.PlanRate, error) {
	ve := &domainpricing.ValidationError{}
	var out []domainpricing.PlanRate
	for i, row := range rows {
		if row.PropertyID != "" && row.PropertyID != propertyID {
			ve.Add(fmt.Sprintf("rows[%d].property_id", i), "row belongs to property %q", row.PropertyID)
			continue
		}
		plan, ok := domainpricing.ParsePlanType(row.PlanType)
		if !ok {
			ve.Add(fmt.Sprintf("rows[%d].plan_type", i), "unknown plan type %q", row.PlanType)
			continue
		}
		occupancy, ok := domainpricing.NormalizeOccupancy(row.Occupancy)
		if !ok {
			ve.Add(fmt.Sprintf("rows[%d].occupancy_type", i), "unknown occupancy type %q", row.Occupancy)
			continue
		}
		start, err1 := rateimport.ParseDate(row.StartDate)
		end, err2 := rateimport.ParseDate(row.EndDate)
		if err1 != nil || err2 != nil || !start.Before(end) {
			ve.Add(fmt.Sprintf("rows[%d].dates", i), "start date must be before end date")
			continue
		}
		span, err := domainpricing.NewSpan(start, end)
		if err != nil {
			ve.Add(fmt.Sprintf("rows[%d].dates", i), "start date must be before end date")
			continue
		}
		out = append(out, domainpricing.PlanRate{
			RoomCategory: row.RoomCategory,
			Plan:         plan,
			Occupancy:    occupancy,
			Price:        money.Money{Amount: row.Price, Currency: currency},
			Span:         span,
			Active:       true,
		})
	}
	if ve.HasErrors() {
		return nil, ve
	}
	return out, nil
}

var _ commands.Handler[ParseRateSheetCommand, dto.ImportResponse] = (*ParseRateSheetHandler)(nil)
var _ commands.Handler[CommitRateSheetCommand, *SaveRuleSetResult] = (*CommitRateSheetHandler)(nil)
var _ middleware.IdempotentCommand = CommitRateSheetCommand{}
var _ middleware.PropertyScoped = CommitRateSheetCommand{}
var _ middleware.SelfValidating = CommitRateSheetCommand{}
