package csvimport

import (
	"cmp"
	"math"
	"slices"

	"github.com/p-n-ai/pai-content/internal/content"
)

// Field names shared by the schemas.
const (
	fieldMaterial            = "material"
	fieldMaterialDescription = "material_description"
	fieldChapter             = "chapter"
	fieldChapterDescription  = "chapter_description"
	fieldUnit                = "unit"
	fieldUnitDescription     = "unit_description"
	fieldJapanese            = "japanese"
	fieldHint                = "hint"
	fieldExplanation         = "explanation"
	fieldOrder               = "order"
	fieldAnswers             = "answers"
)

var (
	japaneseColumn    = column{name: fieldJapanese, label: "Japanese", aliases: []string{"Japanese", "Question", "Question Text", "Prompt", "日本語", "問題", "問題文"}, required: true}
	hintColumn        = column{name: fieldHint, label: "Hint", aliases: []string{"Hint", "ヒント"}}
	explanationColumn = column{name: fieldExplanation, label: "Explanation", aliases: []string{"Explanation", "解説"}}
	orderColumn       = column{name: fieldOrder, label: "Order", aliases: []string{"Order", "Position", "順番", "順序"}}

	answersFamily = family{
		name:      fieldAnswers,
		label:     "CorrectAnswer1..N",
		prefixes:  []string{"CorrectAnswer", "Answer", "正解", "解答"},
		fallbacks: []string{"CorrectAnswer", "Answer", "CorrectAnswers", "Answers", "正解", "解答"},
		required:  true,
	}
)

var unitQuestionSchema = newSchema(
	[]column{japaneseColumn, hintColumn, explanationColumn, orderColumn},
	[]family{answersFamily},
)

// QuestionRow is one parsed question. Order is 0 when the file has no
// order for the row.
type QuestionRow struct {
	Line  int `json:"line"`
	Order int `json:"order,omitempty"`
	content.QuestionInput
}

// QuestionResult holds the rows that parsed and the rows that did not.
type QuestionResult struct {
	Rows   []QuestionRow `json:"rows"`
	Errors []RowError    `json:"errors"`
}

// Questions returns the parsed questions, rows with an explicit order first
// in that order, the rest in file order.
func (r *QuestionResult) Questions() []content.QuestionInput {
	return QuestionInputs(r.Rows)
}

// ParseUnitQuestionCSV parses a question file for one unit. Required
// columns: Japanese and at least one answer column.
func ParseUnitQuestionCSV(text string) (*QuestionResult, error) {
	records, err := ReadText(text, 0)
	if err != nil {
		return nil, err
	}
	return ParseUnitQuestions(records)
}

// ParseUnitQuestions is ParseUnitQuestionCSV over already tokenized rows.
func ParseUnitQuestions(records []Record) (*QuestionResult, error) {
	head, rows, err := split(records)
	if err != nil {
		return nil, err
	}
	h, err := unitQuestionSchema.resolve(head.Fields)
	if err != nil {
		return nil, err
	}

	res := &QuestionResult{Rows: []QuestionRow{}, Errors: []RowError{}}
	for _, rec := range rows {
		q, errs := parseQuestion(h, rec)
		if len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			continue
		}
		res.Rows = append(res.Rows, q)
	}
	return res, nil
}

func parseQuestion(h *header, rec Record) (QuestionRow, []RowError) {
	var errs []RowError
	q := QuestionRow{
		Line: rec.Line,
		QuestionInput: content.QuestionInput{
			Japanese:    h.value(rec, fieldJapanese),
			Hint:        h.value(rec, fieldHint),
			Explanation: h.value(rec, fieldExplanation),
			Answers:     h.values(rec, fieldAnswers),
		},
	}
	if q.Japanese == "" {
		errs = append(errs, RowError{Row: rec.Line, Field: fieldJapanese, Message: "required"})
	}
	if len(q.Answers) == 0 {
		errs = append(errs, RowError{Row: rec.Line, Field: fieldAnswers, Message: "at least one answer is required"})
	}
	order, oerr := h.order(rec)
	if oerr != nil {
		errs = append(errs, *oerr)
	}
	q.Order = order
	return q, errs
}

func orderKey(order int) int {
	if order <= 0 {
		return math.MaxInt
	}
	return order
}

func sortRows[T any](rows []T, order func(T) int) []T {
	rows = slices.Clone(rows)
	slices.SortStableFunc(rows, func(a, b T) int {
		return cmp.Compare(orderKey(order(a)), orderKey(order(b)))
	})
	return rows
}

// QuestionInputs drops row metadata, placing rows with an explicit order
// first in that order and the rest in file order.
func QuestionInputs(rows []QuestionRow) []content.QuestionInput {
	sorted := sortRows(rows, func(r QuestionRow) int { return r.Order })
	out := make([]content.QuestionInput, len(sorted))
	for i, r := range sorted {
		out[i] = r.QuestionInput
	}
	return out
}
