package csvimport

import (
	"github.com/p-n-ai/pai-content/internal/content"
)

const (
	fieldHeadword      = "headword"
	fieldPronunciation = "pronunciation"
	fieldPartOfSpeech  = "part_of_speech"
	fieldDefinitions   = "definitions"
	fieldSynonyms      = "synonyms"
	fieldAntonyms      = "antonyms"
	fieldRelatedWords  = "related_words"
	fieldExamples      = "examples"
)

var vocabularySchema = newSchema(
	[]column{
		{name: fieldHeadword, label: "Headword", aliases: []string{"Headword", "Word", "Term", "見出し語", "単語"}, required: true},
		{name: fieldPronunciation, label: "Pronunciation", aliases: []string{"Pronunciation", "Reading", "読み", "発音"}},
		{name: fieldPartOfSpeech, label: "PartOfSpeech", aliases: []string{"Part of Speech", "POS", "品詞"}},
		hintColumn,
		explanationColumn,
		orderColumn,
	},
	[]family{
		{
			name:      fieldDefinitions,
			label:     "Definition1..N",
			prefixes:  []string{"Definition", "Meaning", "定義", "意味"},
			fallbacks: []string{"Definition", "Definitions", "Meaning", "定義", "意味"},
			required:  true,
		},
		{name: fieldSynonyms, label: "Synonym1..N", prefixes: []string{"Synonym", "類義語"}, fallbacks: []string{"Synonym", "Synonyms", "類義語"}},
		{name: fieldAntonyms, label: "Antonym1..N", prefixes: []string{"Antonym", "対義語"}, fallbacks: []string{"Antonym", "Antonyms", "対義語"}},
		{name: fieldRelatedWords, label: "RelatedWord1..N", prefixes: []string{"RelatedWord", "Related", "関連語"}, fallbacks: []string{"RelatedWord", "RelatedWords", "関連語"}},
		{name: fieldExamples, label: "Example1..N", prefixes: []string{"Example", "ExampleSentence", "例文"}, fallbacks: []string{"Example", "Examples", "例文"}},
	},
)

// VocabularyRow is one parsed dictionary entry.
type VocabularyRow struct {
	Line        int                     `json:"line"`
	Order       int                     `json:"order,omitempty"`
	Hint        string                  `json:"hint,omitempty"`
	Explanation string                  `json:"explanation,omitempty"`
	Entry       content.VocabularyEntry `json:"entry"`
}

// Question turns the entry into a practice question: the primary definition
// is the prompt and the headword is the only accepted answer.
func (r VocabularyRow) Question() content.QuestionInput {
	entry := r.Entry
	return content.QuestionInput{
		Japanese:    entry.PrimaryDefinition,
		Hint:        r.Hint,
		Explanation: r.Explanation,
		Answers:     []string{entry.Headword},
		Vocabulary:  &entry,
	}
}

// VocabularyResult holds the entries that parsed and the rows that did not.
type VocabularyResult struct {
	Rows   []VocabularyRow `json:"rows"`
	Errors []RowError      `json:"errors"`
}

// Questions converts every row with VocabularyRow.Question, honoring any
// order column.
func (r *VocabularyResult) Questions() []content.QuestionInput {
	return VocabularyQuestions(r.Rows)
}

// VocabularyQuestions is VocabularyResult.Questions over bare rows.
func VocabularyQuestions(rows []VocabularyRow) []content.QuestionInput {
	sorted := sortRows(rows, func(v VocabularyRow) int { return v.Order })
	out := make([]content.QuestionInput, len(sorted))
	for i, v := range sorted {
		out[i] = v.Question()
	}
	return out
}

// ParseVocabularyCSV parses a vocabulary file for one unit. Required
// columns: Headword and at least one definition column.
func ParseVocabularyCSV(text string) (*VocabularyResult, error) {
	records, err := ReadText(text, 0)
	if err != nil {
		return nil, err
	}
	return ParseVocabulary(records)
}

// ParseVocabulary is ParseVocabularyCSV over already tokenized rows.
func ParseVocabulary(records []Record) (*VocabularyResult, error) {
	head, rows, err := split(records)
	if err != nil {
		return nil, err
	}
	h, err := vocabularySchema.resolve(head.Fields)
	if err != nil {
		return nil, err
	}

	res := &VocabularyResult{Rows: []VocabularyRow{}, Errors: []RowError{}}
	for _, rec := range rows {
		var errs []RowError
		definitions := h.values(rec, fieldDefinitions)
		row := VocabularyRow{
			Line:        rec.Line,
			Hint:        h.value(rec, fieldHint),
			Explanation: h.value(rec, fieldExplanation),
			Entry: content.VocabularyEntry{
				Headword:      h.value(rec, fieldHeadword),
				Pronunciation: h.value(rec, fieldPronunciation),
				PartOfSpeech:  h.value(rec, fieldPartOfSpeech),
				Synonyms:      h.values(rec, fieldSynonyms),
				Antonyms:      h.values(rec, fieldAntonyms),
				RelatedWords:  h.values(rec, fieldRelatedWords),
				Examples:      h.values(rec, fieldExamples),
			},
		}
		if len(definitions) > 0 {
			row.Entry.PrimaryDefinition = definitions[0]
			row.Entry.SecondaryDefinitions = definitions[1:]
		}

		if row.Entry.Headword == "" {
			errs = append(errs, RowError{Row: rec.Line, Field: fieldHeadword, Message: "required"})
		}
		if row.Entry.PrimaryDefinition == "" {
			errs = append(errs, RowError{Row: rec.Line, Field: fieldDefinitions, Message: "a primary definition is required"})
		}
		order, oerr := h.order(rec)
		if oerr != nil {
			errs = append(errs, *oerr)
		}
		row.Order = order

		if len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}
