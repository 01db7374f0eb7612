package converter

import (
	"io"
	"slices"

	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first worksheet of a workbook as a point table, with
// the same column rules as ParseCSV. sheet, when set, picks another
// worksheet by name.
func ParseXLSX(r io.Reader, defaultName, sheet string, cols Columns) ([]geo.Feature, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("invalid XLSX workbook: %v", err)
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("XLSX workbook has no worksheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, apperr.Validation("worksheet %q not found", sheet)
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, apperr.Validation("read worksheet %q: %v", sheet, err)
	}
	return parseTable("XLSX", rows, defaultName, cols)
}
