package csvimport

import (
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-content/internal/content"
)

// ReadWorkbook reads one sheet of an XLSX workbook as records. An empty
// sheet name selects the first sheet. Line is the spreadsheet row number.
func ReadWorkbook(r io.Reader, sheet string) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, content.Invalid("sheet", "%q not found in workbook", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var records []Record
	for i, cells := range rows {
		rec := Record{Line: i + 1, Fields: cells}
		if !rec.blank() {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return records, nil
}
