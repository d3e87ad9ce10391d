package dto

import (
	"stayrates/internal/domain/rateimport"
)

type ImportRowPayload struct {
	PropertyID   string `json:"property_id"`
	RoomCategory string `json:"room_category"`
	PlanType     string `json:"plan_type"`
	Occupancy    string `json:"occupancy_type"`
	Price        int64  `json:"price"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	SeasonType   string `json:"season_type,omitempty"`
}

type ImportSummary struct {
	TotalRows          int    `json:"total_rows"`
	ValidRows          int    `json:"valid_rows"`
	InvalidRows        int    `json:"invalid_rows"`
	DistinctProperties int    `json:"distinct_properties"`
	DistinctCategories int    `json:"distinct_categories"`
	DateFrom           string `json:"date_from,omitempty"`
	DateTo             string `json:"date_to,omitempty"`
}

type ImportResponse struct {
	ImportID   string             `json:"import_id"`
	ArchiveURL string             `json:"archive_url,omitempty"`
	ValidRows  []ImportRowPayload `json:"valid_rows"`
	Errors     []string           `json:"errors"`
	Summary    ImportSummary      `json:"summary"`
}

func MapImportResult(importID, archiveURL string, res rateimport.Result) ImportResponse {
	resp := ImportResponse{
		ImportID:   importID,
		ArchiveURL: archiveURL,
		Errors:     res.Errors,
		Summary: ImportSummary{
			TotalRows:          res.Summary.TotalRows,
			ValidRows:          res.Summary.ValidRows,
			InvalidRows:        res.Summary.InvalidRows,
			DistinctProperties: res.Summary.DistinctProperties,
			DistinctCategories: res.Summary.DistinctCategories,
		},
	}
	if res.Summary.DateRange != nil {
		resp.Summary.DateFrom = FormatDate(res.Summary.DateRange.Start)
		resp.Summary.DateTo = FormatDate(res.Summary.DateRange.End)
	}
	for _, row := range res.Rows {
		resp.ValidRows = append(resp.ValidRows, ImportRowPayload{
			PropertyID:   row.PropertyID,
			RoomCategory: row.RoomCategory,
			PlanType:     string(row.Plan),
			Occupancy:    string(row.Occupancy),
			Price:        row.Price,
			StartDate:    FormatDate(row.Span.Start),
			EndDate:      FormatDate(row.Span.End),
			SeasonType:   row.SeasonType,
		})
	}
	return resp
}
