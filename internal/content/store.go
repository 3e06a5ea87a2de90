package content

import (
	"context"
	"time"
)

// MaterialStore persists materials.
type MaterialStore interface {
	CreateMaterial(ctx context.Context, m Material) (Material, error)
	GetMaterial(ctx context.Context, id string) (Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
	FindMaterialByName(ctx context.Context, name string) (Material, bool, error)
	DeleteMaterial(ctx context.Context, id string) error
}

// ChapterStore persists chapters.
type ChapterStore interface {
	CreateChapter(ctx context.Context, c Chapter) (Chapter, error)
	GetChapter(ctx context.Context, id string) (Chapter, error)
	ListChaptersByMaterial(ctx context.Context, materialID string) ([]Chapter, error)
	FindChapterByName(ctx context.Context, materialID, parentID, name string) (Chapter, bool, error)
	DeleteChapter(ctx context.Context, id string) error
}

// UnitStore persists units.
type UnitStore interface {
	CreateUnit(ctx context.Context, u Unit) (Unit, error)
	GetUnit(ctx context.Context, id string) (Unit, error)
	ListUnitsByChapters(ctx context.Context, chapterIDs []string) ([]Unit, error)
	FindUnitByName(ctx context.Context, chapterID, name string) (Unit, bool, error)
	DeleteUnit(ctx context.Context, id string) error
}

// QuestionStore persists questions with their answers and vocabulary data.
type QuestionStore interface {
	// CreateQuestion stores the question, its answers and its vocabulary
	// entry as one unit of work.
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	ListQuestionsByUnits(ctx context.Context, unitIDs []string) ([]Question, error)
	CountQuestionsByUnits(ctx context.Context, unitIDs []string) (map[string]int, error)
	DeleteQuestion(ctx context.Context, id string) error
}

// SiblingCheck inspects a group's current siblings, sorted by position,
// while the group is locked for the write. A non-nil error aborts the write.
type SiblingCheck func(current []Sibling) error

// OrderStore reads and rewrites sibling positions.
type OrderStore interface {
	SiblingOrders(ctx context.Context, g SiblingGroup) ([]Sibling, error)
	// SetSiblingOrders applies every position or none of them. check, when
	// set, runs under the same lock as the write.
	SetSiblingOrders(ctx context.Context, g SiblingGroup, orders []Sibling, check SiblingCheck) error
}

// StatisticStore persists per-learner question statistics.
type StatisticStore interface {
	RecordAttempt(ctx context.Context, learnerID, questionID, mode string, correct bool, at time.Time) (QuestionStatistic, error)
	// ListStatistics returns the learner's statistics for the given questions.
	// An empty mode returns rows for every mode.
	ListStatistics(ctx context.Context, learnerID, mode string, questionIDs []string) ([]QuestionStatistic, error)
}

// Store is the full persistence port. Deletes cascade to descendants.
type Store interface {
	MaterialStore
	ChapterStore
	UnitStore
	QuestionStore
	OrderStore
	StatisticStore

	// WithTx runs fn against a store whose writes commit together when fn
	// returns nil and are discarded otherwise. Nested calls join the outer
	// transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}
