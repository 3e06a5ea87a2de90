// Package curriculum implements the write operations on the content
// hierarchy and loads material seeds from YAML.
package curriculum

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/ordering"
)

// Service creates and deletes hierarchy nodes. Every create checks that the
// parent exists and takes its order from the ordering engine's create rule.
type Service struct {
	store content.Store
	order *ordering.Engine
}

// NewService creates a curriculum service. A nil engine gets a default one
// bound to store.
func NewService(store content.Store, order *ordering.Engine) *Service {
	if order == nil {
		order = ordering.NewEngine(ordering.EngineConfig{Store: store})
	}
	return &Service{store: store, order: order}
}

// Store returns the store the service writes to.
func (s *Service) Store() content.Store { return s.store }

// InTx runs fn with a service bound to one transaction.
func (s *Service) InTx(ctx context.Context, fn func(*Service) error) error {
	return s.store.WithTx(ctx, func(tx content.Store) error {
		return fn(&Service{store: tx, order: s.order.WithStore(tx)})
	})
}

// CreateMaterial appends a material to the catalog.
func (s *Service) CreateMaterial(ctx context.Context, p MaterialParams) (content.Material, error) {
	name, err := requireName(p.Name)
	if err != nil {
		return content.Material{}, err
	}
	order, err := s.order.NextOrder(ctx, content.MaterialsGroup())
	if err != nil {
		return content.Material{}, err
	}
	m, err := s.store.CreateMaterial(ctx, content.Material{
		Name:        name,
		Description: strings.TrimSpace(p.Description),
		Order:       order,
	})
	if err != nil {
		return content.Material{}, fmt.Errorf("create material: %w", err)
	}
	return m, nil
}

// CreateChapter appends a chapter under its parent. The parent must belong
// to the same material; the new chapter sits one level below it.
func (s *Service) CreateChapter(ctx context.Context, p ChapterParams) (content.Chapter, error) {
	name, err := requireName(p.Name)
	if err != nil {
		return content.Chapter{}, err
	}
	if _, err := s.store.GetMaterial(ctx, p.MaterialID); err != nil {
		return content.Chapter{}, err
	}

	level := 0
	if p.ParentID != "" {
		parent, err := s.store.GetChapter(ctx, p.ParentID)
		if err != nil {
			return content.Chapter{}, err
		}
		if parent.MaterialID != p.MaterialID {
			return content.Chapter{}, content.Invalid("parent_chapter_id",
				"chapter %s belongs to material %s", parent.ID, parent.MaterialID)
		}
		level = parent.Level + 1
	}
	if level > content.MaxChapterDepth {
		return content.Chapter{}, content.Invalid("parent_chapter_id",
			"chapters may nest at most %d levels", content.MaxChapterDepth)
	}

	order, err := s.order.NextOrder(ctx, content.ChaptersGroup(p.MaterialID, p.ParentID))
	if err != nil {
		return content.Chapter{}, err
	}
	c, err := s.store.CreateChapter(ctx, content.Chapter{
		MaterialID:  p.MaterialID,
		ParentID:    p.ParentID,
		Name:        name,
		Description: strings.TrimSpace(p.Description),
		Level:       level,
		Order:       order,
	})
	if err != nil {
		return content.Chapter{}, fmt.Errorf("create chapter: %w", err)
	}
	return c, nil
}

// CreateUnit appends a unit to a chapter.
func (s *Service) CreateUnit(ctx context.Context, p UnitParams) (content.Unit, error) {
	name, err := requireName(p.Name)
	if err != nil {
		return content.Unit{}, err
	}
	if _, err := s.store.GetChapter(ctx, p.ChapterID); err != nil {
		return content.Unit{}, err
	}
	order, err := s.order.NextOrder(ctx, content.UnitsGroup(p.ChapterID))
	if err != nil {
		return content.Unit{}, err
	}
	u, err := s.store.CreateUnit(ctx, content.Unit{
		ChapterID:   p.ChapterID,
		Name:        name,
		Description: strings.TrimSpace(p.Description),
		Order:       order,
	})
	if err != nil {
		return content.Unit{}, fmt.Errorf("create unit: %w", err)
	}
	return u, nil
}

// CreateQuestion appends a question to a unit. Its answers are numbered
// 1..N in the order given.
func (s *Service) CreateQuestion(ctx context.Context, p QuestionParams) (content.Question, error) {
	japanese := strings.TrimSpace(p.Japanese)
	if japanese == "" {
		return content.Question{}, content.Invalid("japanese", "must not be empty")
	}
	var answers []content.CorrectAnswer
	for _, a := range p.Answers {
		if a = strings.TrimSpace(a); a != "" {
			answers = append(answers, content.CorrectAnswer{AnswerText: a, Order: len(answers) + 1})
		}
	}
	if len(answers) == 0 {
		return content.Question{}, content.Invalid("answers", "at least one answer is required")
	}
	if p.Vocabulary != nil && strings.TrimSpace(p.Vocabulary.Headword) == "" {
		return content.Question{}, content.Invalid("headword", "must not be empty")
	}

	if _, err := s.store.GetUnit(ctx, p.UnitID); err != nil {
		return content.Question{}, err
	}
	order, err := s.order.NextOrder(ctx, content.QuestionsGroup(p.UnitID))
	if err != nil {
		return content.Question{}, err
	}
	q, err := s.store.CreateQuestion(ctx, content.Question{
		UnitID:      p.UnitID,
		Japanese:    japanese,
		Hint:        strings.TrimSpace(p.Hint),
		Explanation: strings.TrimSpace(p.Explanation),
		Order:       order,
		Answers:     answers,
		Vocabulary:  p.Vocabulary,
	})
	if err != nil {
		return content.Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// FindOrCreateMaterial returns the material with the exact name, creating it
// when absent. The flag reports whether it was created.
func (s *Service) FindOrCreateMaterial(ctx context.Context, p MaterialParams) (content.Material, bool, error) {
	name, err := requireName(p.Name)
	if err != nil {
		return content.Material{}, false, err
	}
	m, ok, err := s.store.FindMaterialByName(ctx, name)
	if err != nil {
		return content.Material{}, false, fmt.Errorf("find material: %w", err)
	}
	if ok {
		return m, false, nil
	}
	m, err = s.CreateMaterial(ctx, p)
	return m, err == nil, err
}

// FindOrCreateChapter matches by name among the chapters sharing the
// parent within the material.
func (s *Service) FindOrCreateChapter(ctx context.Context, p ChapterParams) (content.Chapter, bool, error) {
	name, err := requireName(p.Name)
	if err != nil {
		return content.Chapter{}, false, err
	}
	c, ok, err := s.store.FindChapterByName(ctx, p.MaterialID, p.ParentID, name)
	if err != nil {
		return content.Chapter{}, false, fmt.Errorf("find chapter: %w", err)
	}
	if ok {
		return c, false, nil
	}
	c, err = s.CreateChapter(ctx, p)
	return c, err == nil, err
}

// FindOrCreateUnit matches by name within the chapter.
func (s *Service) FindOrCreateUnit(ctx context.Context, p UnitParams) (content.Unit, bool, error) {
	name, err := requireName(p.Name)
	if err != nil {
		return content.Unit{}, false, err
	}
	u, ok, err := s.store.FindUnitByName(ctx, p.ChapterID, name)
	if err != nil {
		return content.Unit{}, false, fmt.Errorf("find unit: %w", err)
	}
	if ok {
		return u, false, nil
	}
	u, err = s.CreateUnit(ctx, p)
	return u, err == nil, err
}

// DeleteMaterial removes a material and everything below it. Sibling orders
// are not renumbered.
func (s *Service) DeleteMaterial(ctx context.Context, id string) error {
	if err := s.store.DeleteMaterial(ctx, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	slog.Info("material deleted", "material_id", id)
	return nil
}

// DeleteChapter removes a chapter with its child chapters and units.
func (s *Service) DeleteChapter(ctx context.Context, id string) error {
	if err := s.store.DeleteChapter(ctx, id); err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	slog.Info("chapter deleted", "chapter_id", id)
	return nil
}

// DeleteUnit removes a unit and its questions.
func (s *Service) DeleteUnit(ctx context.Context, id string) error {
	if err := s.store.DeleteUnit(ctx, id); err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}
	slog.Info("unit deleted", "unit_id", id)
	return nil
}

// DeleteQuestion removes a question, its answers and its statistics.
func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", content.Invalid("name", "must not be empty")
	}
	return name, nil
}
