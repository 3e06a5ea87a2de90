package csvimport_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/csvimport"
)

func workbook(t *testing.T, sheet string, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet() error = %v", err)
		}
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf
}

func TestReadWorkbook(t *testing.T) {
	buf := workbook(t, "Sheet1", [][]any{
		{"Japanese", "Answer2", "Answer1"},
		{"たべる", "B", "A"},
		{},
		{"のむ", "drink", ""},
	})

	records, err := csvimport.ReadWorkbook(buf, "")
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	res, err := csvimport.ParseUnitQuestions(records)
	if err != nil {
		t.Fatalf("ParseUnitQuestions() error = %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2", len(res.Rows))
	}
	if a := res.Rows[0].Answers; len(a) != 2 || a[0] != "A" || a[1] != "B" {
		t.Errorf("answers = %v, want [A B]", a)
	}
	if res.Rows[1].Line != 4 {
		t.Errorf("Line = %d, want spreadsheet row 4", res.Rows[1].Line)
	}
}

func TestReadWorkbook_NamedSheet(t *testing.T) {
	buf := workbook(t, "Vocab", [][]any{
		{"Headword", "Definition"},
		{"猫", "cat"},
	})

	records, err := csvimport.ReadWorkbook(bytes.NewReader(buf.Bytes()), "Vocab")
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}

	_, err = csvimport.ReadWorkbook(bytes.NewReader(buf.Bytes()), "Missing")
	if !errors.Is(err, content.ErrValidation) {
		t.Errorf("missing sheet error = %v, want ErrValidation", err)
	}
}

func TestReadWorkbook_Empty(t *testing.T) {
	buf := workbook(t, "Sheet1", nil)
	if _, err := csvimport.ReadWorkbook(buf, ""); !errors.Is(err, csvimport.ErrEmptyFile) {
		t.Errorf("ReadWorkbook() error = %v, want ErrEmptyFile", err)
	}
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	if _, err := csvimport.ReadWorkbook(bytes.NewReader([]byte("a,b\n")), ""); err == nil {
		t.Error("ReadWorkbook() should fail for non-xlsx input")
	}
}
