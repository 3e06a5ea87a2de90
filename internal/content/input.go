package content

// MaterialInput describes a material and its subtree as it arrives from an
// importer (CSV grouping or YAML seed). Matching against existing rows is by
// name within the parent scope.
type MaterialInput struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Chapters    []ChapterInput `yaml:"chapters" json:"chapters"`
}

// ChapterInput is a chapter with nested chapters and units.
type ChapterInput struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Chapters    []ChapterInput `yaml:"chapters" json:"chapters,omitempty"`
	Units       []UnitInput    `yaml:"units" json:"units,omitempty"`
}

// UnitInput is a unit and the questions to append to it.
type UnitInput struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description,omitempty"`
	Questions   []QuestionInput `yaml:"questions" json:"questions"`
}

// QuestionInput is a question to create. Order is assigned on create.
type QuestionInput struct {
	Japanese    string           `yaml:"japanese" json:"japanese"`
	Hint        string           `yaml:"hint" json:"hint,omitempty"`
	Explanation string           `yaml:"explanation" json:"explanation,omitempty"`
	Answers     []string         `yaml:"answers" json:"answers"`
	Vocabulary  *VocabularyEntry `yaml:"vocabulary" json:"vocabulary,omitempty"`
}

// QuestionCount returns the number of questions in the material subtree.
func (m MaterialInput) QuestionCount() int {
	n := 0
	for _, c := range m.Chapters {
		n += c.questionCount()
	}
	return n
}

func (c ChapterInput) questionCount() int {
	n := 0
	for _, u := range c.Units {
		n += len(u.Questions)
	}
	for _, child := range c.Chapters {
		n += child.questionCount()
	}
	return n
}
