// Package importer materializes parsed content into the store, matching
// existing materials, chapters and units by title within their parent.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-content/internal/audit"
	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/csvimport"
	"github.com/p-n-ai/pai-content/internal/curriculum"
)

// Summary counts what an import created and which existing nodes it reused.
type Summary struct {
	MaterialsCreated int `json:"materials_created"`
	MaterialsReused  int `json:"materials_reused"`
	ChaptersCreated  int `json:"chapters_created"`
	ChaptersReused   int `json:"chapters_reused"`
	UnitsCreated     int `json:"units_created"`
	UnitsReused      int `json:"units_reused"`
	QuestionsCreated int `json:"questions_created"`
	AnswersCreated   int `json:"answers_created"`
}

// Importer writes material inputs and scoped question batches.
type Importer struct {
	svc    *curriculum.Service
	events audit.EventLogger
}

// New creates an importer. events may be nil.
func New(svc *curriculum.Service, events audit.EventLogger) *Importer {
	if events == nil {
		events = audit.NopEventLogger{}
	}
	return &Importer{svc: svc, events: events}
}

// job is one transaction: the path down to a unit, or to an empty leaf.
type job struct {
	material content.MaterialInput
	chapters []content.ChapterInput
	unit     *content.UnitInput
}

func (j job) path() string {
	parts := []string{j.material.Name}
	for _, c := range j.chapters {
		parts = append(parts, c.Name)
	}
	if j.unit != nil {
		parts = append(parts, j.unit.Name)
	}
	return strings.Join(parts, " / ")
}

func plan(materials []content.MaterialInput) []job {
	var jobs []job
	var walk func(m content.MaterialInput, path []content.ChapterInput, c content.ChapterInput)
	walk = func(m content.MaterialInput, path []content.ChapterInput, c content.ChapterInput) {
		path = append(path[:len(path):len(path)], c)
		if len(c.Units) == 0 && len(c.Chapters) == 0 {
			jobs = append(jobs, job{material: m, chapters: path})
			return
		}
		for i := range c.Units {
			jobs = append(jobs, job{material: m, chapters: path, unit: &c.Units[i]})
		}
		for _, child := range c.Chapters {
			walk(m, path, child)
		}
	}
	for _, m := range materials {
		if len(m.Chapters) == 0 {
			jobs = append(jobs, job{material: m})
			continue
		}
		for _, c := range m.Chapters {
			walk(m, nil, c)
		}
	}
	return jobs
}

// tally tracks node ids across transactions so a node touched by several
// units is counted once.
type tally struct {
	Summary
	seen map[string]struct{}
}

func newTally() *tally {
	return &tally{seen: map[string]struct{}{}}
}

type touch struct {
	kind    content.GroupKind
	id      string
	created bool
}

func (t *tally) commit(touched []touch, questions, answers int) {
	for _, tc := range touched {
		if _, ok := t.seen[tc.id]; ok {
			continue
		}
		t.seen[tc.id] = struct{}{}
		switch tc.kind {
		case content.KindMaterial:
			if tc.created {
				t.MaterialsCreated++
			} else {
				t.MaterialsReused++
			}
		case content.KindChapter:
			if tc.created {
				t.ChaptersCreated++
			} else {
				t.ChaptersReused++
			}
		case content.KindUnit:
			if tc.created {
				t.UnitsCreated++
			} else {
				t.UnitsReused++
			}
		}
	}
	t.QuestionsCreated += questions
	t.AnswersCreated += answers
}

// ImportMaterials finds or creates every material, chapter and unit by exact
// title in its parent scope and appends the questions. Each unit commits in
// its own transaction together with its ancestor lookups. The first failing
// unit stops the import; the returned summary covers the units committed
// before it.
func (i *Importer) ImportMaterials(ctx context.Context, materials []content.MaterialInput) (Summary, error) {
	t := newTally()
	for _, j := range plan(materials) {
		var (
			touched            []touch
			questions, answers int
		)
		err := i.svc.InTx(ctx, func(tx *curriculum.Service) error {
			touched, questions, answers = nil, 0, 0

			m, created, err := tx.FindOrCreateMaterial(ctx, curriculum.MaterialParams{
				Name:        j.material.Name,
				Description: j.material.Description,
			})
			if err != nil {
				return err
			}
			touched = append(touched, touch{content.KindMaterial, m.ID, created})

			parentID := ""
			for _, c := range j.chapters {
				ch, created, err := tx.FindOrCreateChapter(ctx, curriculum.ChapterParams{
					MaterialID:  m.ID,
					ParentID:    parentID,
					Name:        c.Name,
					Description: c.Description,
				})
				if err != nil {
					return err
				}
				touched = append(touched, touch{content.KindChapter, ch.ID, created})
				parentID = ch.ID
			}
			if j.unit == nil {
				return nil
			}

			u, created, err := tx.FindOrCreateUnit(ctx, curriculum.UnitParams{
				ChapterID:   parentID,
				Name:        j.unit.Name,
				Description: j.unit.Description,
			})
			if err != nil {
				return err
			}
			touched = append(touched, touch{content.KindUnit, u.ID, created})

			questions, answers, err = createQuestions(ctx, tx, u.ID, j.unit.Questions)
			return err
		})
		if err != nil {
			return t.Summary, fmt.Errorf("import %s: %w", j.path(), err)
		}
		t.commit(touched, questions, answers)
	}

	i.completed(ctx, "materials", "", t.Summary)
	return t.Summary, nil
}

// ImportUnitQuestions appends parsed question rows to an existing unit in
// one transaction.
func (i *Importer) ImportUnitQuestions(ctx context.Context, unitID string, rows []csvimport.QuestionRow) (Summary, error) {
	return i.importIntoUnit(ctx, "unit_questions", unitID, csvimport.QuestionInputs(rows))
}

// ImportVocabulary appends vocabulary rows to an existing unit, each as a
// question answered by its headword.
func (i *Importer) ImportVocabulary(ctx context.Context, unitID string, rows []csvimport.VocabularyRow) (Summary, error) {
	return i.importIntoUnit(ctx, "vocabulary", unitID, csvimport.VocabularyQuestions(rows))
}

// ImportSeeds materializes every seed the loader holds.
func (i *Importer) ImportSeeds(ctx context.Context, loader *curriculum.Loader) (Summary, error) {
	return i.ImportMaterials(ctx, loader.Materials())
}

func (i *Importer) importIntoUnit(ctx context.Context, kind, unitID string, inputs []content.QuestionInput) (Summary, error) {
	var s Summary
	err := i.svc.InTx(ctx, func(tx *curriculum.Service) error {
		if _, err := tx.Store().GetUnit(ctx, unitID); err != nil {
			return err
		}
		q, a, err := createQuestions(ctx, tx, unitID, inputs)
		s.QuestionsCreated, s.AnswersCreated = q, a
		return err
	})
	if err != nil {
		return Summary{}, fmt.Errorf("import into unit %s: %w", unitID, err)
	}
	i.completed(ctx, kind, unitID, s)
	return s, nil
}

func createQuestions(ctx context.Context, tx *curriculum.Service, unitID string, inputs []content.QuestionInput) (questions, answers int, err error) {
	for n, in := range inputs {
		q, err := tx.CreateQuestion(ctx, curriculum.QuestionParams{UnitID: unitID, QuestionInput: in})
		if err != nil {
			return 0, 0, fmt.Errorf("question %d: %w", n+1, err)
		}
		questions++
		answers += len(q.Answers)
	}
	return questions, answers, nil
}

func (i *Importer) completed(ctx context.Context, kind, subjectID string, s Summary) {
	slog.Info("import completed",
		"kind", kind,
		"subject_id", subjectID,
		"materials_created", s.MaterialsCreated,
		"chapters_created", s.ChaptersCreated,
		"units_created", s.UnitsCreated,
		"questions_created", s.QuestionsCreated,
	)
	audit.Log(ctx, i.events, audit.Event{
		EventType: audit.EventImportCompleted,
		SubjectID: subjectID,
		Data: map[string]any{
			"kind":              kind,
			"materials_created": s.MaterialsCreated,
			"materials_reused":  s.MaterialsReused,
			"chapters_created":  s.ChaptersCreated,
			"chapters_reused":   s.ChaptersReused,
			"units_created":     s.UnitsCreated,
			"units_reused":      s.UnitsReused,
			"questions_created": s.QuestionsCreated,
			"answers_created":   s.AnswersCreated,
		},
	})
}
