package importer

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"stayrates/internal/domain/rateimport"
)

var ErrNoSheets = errors.New("importer: workbook has no sheets")

// ReadRows decodes the first sheet of an XLSX workbook into raw string
// records for the rate sheet parser.
func ReadRows(r io.Reader) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("importer: open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("importer: read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// WriteTemplate streams the sample rate sheet workbook; Parse accepts its
// rows with zero errors.
func WriteTemplate(w io.Writer) error {
	book := excelize.NewFile()
	defer book.Close()

	sheet := book.GetSheetName(0)
	for i, record := range rateimport.GenerateSampleTemplate() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return book.Write(w)
}
