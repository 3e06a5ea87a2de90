// Package content holds the learning-content model (Material, Chapter, Unit,
// Question, CorrectAnswer) together with the persistence port used by every
// engine in this module.
package content

import "time"

// MaxChapterDepth bounds how deep chapters may nest below a root chapter.
const MaxChapterDepth = 10

// Material is the top of the hierarchy. It owns a forest of chapters.
type Material struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chapter belongs to a material and optionally to a parent chapter of the
// same material. An empty ParentID marks a root chapter.
type Chapter struct {
	ID          string    `json:"id"`
	MaterialID  string    `json:"material_id"`
	ParentID    string    `json:"parent_chapter_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Level       int       `json:"level"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsRoot reports whether the chapter has no parent chapter.
func (c Chapter) IsRoot() bool { return c.ParentID == "" }

// Unit groups questions inside a chapter.
type Unit struct {
	ID          string    `json:"id"`
	ChapterID   string    `json:"chapter_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Question is a single practice prompt with one or more accepted answers.
type Question struct {
	ID          string           `json:"id"`
	UnitID      string           `json:"unit_id"`
	Japanese    string           `json:"japanese"`
	Hint        string           `json:"hint,omitempty"`
	Explanation string           `json:"explanation,omitempty"`
	Order       int              `json:"order"`
	Answers     []CorrectAnswer  `json:"answers"`
	Vocabulary  *VocabularyEntry `json:"vocabulary,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CorrectAnswer is one accepted answer of a question.
type CorrectAnswer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	AnswerText string    `json:"answer_text"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VocabularyEntry extends a question with dictionary data.
type VocabularyEntry struct {
	Headword             string   `json:"headword" yaml:"headword"`
	Pronunciation        string   `json:"pronunciation,omitempty" yaml:"pronunciation"`
	PartOfSpeech         string   `json:"part_of_speech,omitempty" yaml:"part_of_speech"`
	PrimaryDefinition    string   `json:"primary_definition" yaml:"primary_definition"`
	SecondaryDefinitions []string `json:"secondary_definitions,omitempty" yaml:"secondary_definitions"`
	Synonyms             []string `json:"synonyms,omitempty" yaml:"synonyms"`
	Antonyms             []string `json:"antonyms,omitempty" yaml:"antonyms"`
	RelatedWords         []string `json:"related_words,omitempty" yaml:"related_words"`
	Examples             []string `json:"examples,omitempty" yaml:"examples"`
}

// QuestionStatistic aggregates one learner's attempts on one question,
// optionally scoped to a study mode.
type QuestionStatistic struct {
	LearnerID       string     `json:"learner_id"`
	QuestionID      string     `json:"question_id"`
	Mode            string     `json:"mode,omitempty"`
	TotalAttempts   int        `json:"total_attempts"`
	CorrectCount    int        `json:"correct_count"`
	IncorrectCount  int        `json:"incorrect_count"`
	LastAttemptedAt *time.Time `json:"last_attempted_at,omitempty"`
}

// Accuracy is CorrectCount / TotalAttempts, or 0 when there are no attempts.
func (s QuestionStatistic) Accuracy() float64 {
	if s.TotalAttempts == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.TotalAttempts)
}

// Sibling is the (id, order) pair the ordering engine works with.
type Sibling struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}
