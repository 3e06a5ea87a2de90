package csvimport

import "github.com/p-n-ai/pai-content/internal/content"

var materialSchema = newSchema(
	[]column{
		{name: fieldMaterial, label: "Material", aliases: []string{"Material", "Material Name", "Material Title", "教材", "教材名"}, required: true},
		{name: fieldMaterialDescription, label: "MaterialDescription", aliases: []string{"Material Description", "教材説明"}},
		{name: fieldChapter, label: "Chapter", aliases: []string{"Chapter", "Chapter Name", "Chapter Title", "章", "章名"}, required: true},
		{name: fieldChapterDescription, label: "ChapterDescription", aliases: []string{"Chapter Description", "章説明"}},
		{name: fieldUnit, label: "Unit", aliases: []string{"Unit", "Unit Name", "Unit Title", "単元", "単元名"}, required: true},
		{name: fieldUnitDescription, label: "UnitDescription", aliases: []string{"Unit Description", "単元説明"}},
		japaneseColumn,
		hintColumn,
		explanationColumn,
		orderColumn,
	},
	[]family{answersFamily},
)

// MaterialRow is one question together with the titles of the material,
// chapter and unit it belongs to.
type MaterialRow struct {
	QuestionRow
	Material            string `json:"material"`
	MaterialDescription string `json:"material_description,omitempty"`
	Chapter             string `json:"chapter"`
	ChapterDescription  string `json:"chapter_description,omitempty"`
	Unit                string `json:"unit"`
	UnitDescription     string `json:"unit_description,omitempty"`
}

// MaterialResult holds the parsed rows, their hierarchy grouping and the
// rows that were skipped.
type MaterialResult struct {
	Rows      []MaterialRow           `json:"rows"`
	Materials []content.MaterialInput `json:"materials"`
	Errors    []RowError              `json:"errors"`
}

// ParseMaterialCSV parses a full hierarchy file, one question per row.
// Required columns: Material, Chapter, Unit, Japanese and at least one
// answer column.
func ParseMaterialCSV(text string) (*MaterialResult, error) {
	records, err := ReadText(text, 0)
	if err != nil {
		return nil, err
	}
	return ParseMaterials(records)
}

// ParseMaterials is ParseMaterialCSV over already tokenized rows.
func ParseMaterials(records []Record) (*MaterialResult, error) {
	head, rows, err := split(records)
	if err != nil {
		return nil, err
	}
	h, err := materialSchema.resolve(head.Fields)
	if err != nil {
		return nil, err
	}

	res := &MaterialResult{Rows: []MaterialRow{}, Errors: []RowError{}}
	for _, rec := range rows {
		q, errs := parseQuestion(h, rec)
		row := MaterialRow{
			QuestionRow:         q,
			Material:            h.value(rec, fieldMaterial),
			MaterialDescription: h.value(rec, fieldMaterialDescription),
			Chapter:             h.value(rec, fieldChapter),
			ChapterDescription:  h.value(rec, fieldChapterDescription),
			Unit:                h.value(rec, fieldUnit),
			UnitDescription:     h.value(rec, fieldUnitDescription),
		}
		for field, v := range map[string]string{fieldMaterial: row.Material, fieldChapter: row.Chapter, fieldUnit: row.Unit} {
			if v == "" {
				errs = append(errs, RowError{Row: rec.Line, Field: field, Message: "required"})
			}
		}
		if len(errs) > 0 {
			sortRowErrors(errs)
			res.Errors = append(res.Errors, errs...)
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	res.Materials = Group(res.Rows)
	return res, nil
}
