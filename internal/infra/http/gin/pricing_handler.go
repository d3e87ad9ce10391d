package ginserver

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayrates/internal/app/commands"
	"stayrates/internal/app/dto"
	rulesapp "stayrates/internal/app/handlers/rules"
	"stayrates/internal/app/queries"
	domainpricing "stayrates/internal/domain/pricing"
	"stayrates/internal/infra/importer"
	"stayrates/internal/infra/obs"
)

const maxImportBytes = 10 << 20 // 10 MiB upload cap

type PricingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Metrics  *obs.Metrics
}

func (h PricingHandler) recordEdit(result *rulesapp.SaveRuleSetResult, err error) {
	if h.Metrics == nil {
		return
	}
	if err != nil {
		if errors.Is(err, domainpricing.ErrConsistencySync) {
			h.Metrics.SagaRollbacks.Inc()
		}
		return
	}
	changeType := "update"
	if result != nil && result.RuleSet.Version == 1 {
		changeType = "create"
	}
	h.Metrics.EditsCommitted.WithLabelValues(changeType).Inc()
}

func (h PricingHandler) Update(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var payload dto.RuleSetPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rulesapp.SaveRuleSetCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      c.Param("id"),
		Actor:           actorFrom(c),
		Payload:         payload,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rulesapp.SaveRuleSetCommand, *rulesapp.SaveRuleSetResult](c.Request.Context(), h.Commands, cmd)
	h.recordEdit(result, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) Import(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	if len(raw) > maxImportBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 10 MiB limit"})
		return
	}
	records, err := importer.ReadRows(bytes.NewReader(raw))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is not a readable XLSX workbook"})
		return
	}

	cmd := rulesapp.ParseRateSheetCommand{
		PropertyID:  c.Param("id"),
		Actor:       actorFrom(c),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Records:     records,
		Raw:         raw,
	}
	result, err := commands.Dispatch[rulesapp.ParseRateSheetCommand, dto.ImportResponse](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type commitImportRequest struct {
	Rows []dto.ImportRowPayload `json:"rows"`
}

func (h PricingHandler) CommitImport(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req commitImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rulesapp.CommitRateSheetCommand{
		PropertyID:      c.Param("id"),
		Actor:           actorFrom(c),
		Rows:            req.Rows,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rulesapp.CommitRateSheetCommand, *rulesapp.SaveRuleSetResult](c.Request.Context(), h.Commands, cmd)
	h.recordEdit(result, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) Template(c *gin.Context) {
	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="rate_sheet_template.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h PricingHandler) RateRows(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := rulesapp.ListRateRowsQuery{PropertyID: c.Param("id")}
	rows, err := queries.Ask[rulesapp.ListRateRowsQuery, []dto.RateRowView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rate_rows": rows})
}

func (h PricingHandler) History(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	query := rulesapp.ListHistoryQuery{PropertyID: c.Param("id"), Limit: limit}
	records, err := queries.Ask[rulesapp.ListHistoryQuery, []dto.ChangeRecordView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": records})
}

var _ PricingHTTP = PricingHandler{}
