package curriculum

import "github.com/p-n-ai/pai-content/internal/content"

// MaterialParams are the caller-supplied fields of a new material.
type MaterialParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ChapterParams are the caller-supplied fields of a new chapter. An empty
// ParentID creates a root chapter.
type ChapterParams struct {
	MaterialID  string `json:"material_id"`
	ParentID    string `json:"parent_chapter_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UnitParams are the caller-supplied fields of a new unit.
type UnitParams struct {
	ChapterID   string `json:"chapter_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// QuestionParams are the caller-supplied fields of a new question.
type QuestionParams struct {
	UnitID string `json:"unit_id"`
	content.QuestionInput
}
