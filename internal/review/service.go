package review

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/hierarchy"
)

// summaryConcurrency bounds the per-material fan-out.
const summaryConcurrency = 4

// MaterialSummary is a material with its bucket counts.
type MaterialSummary struct {
	content.Material
	Summary Summary `json:"summary"`
}

// Result is the review view for one learner.
type Result struct {
	Materials          []MaterialSummary `json:"materials"`
	SelectedMaterialID string            `json:"selected_material_id"`
	Groups             Groups            `json:"groups"`
	Thresholds         Thresholds        `json:"thresholds"`
}

// Service builds review groupings from stored statistics.
type Service struct {
	store      content.Store
	tree       *hierarchy.Reader
	thresholds Thresholds
	now        func() time.Time
}

// NewService creates a review service.
func NewService(store content.Store, th Thresholds) *Service {
	return &Service{
		store:      store,
		tree:       hierarchy.NewReader(store),
		thresholds: th,
		now:        time.Now,
	}
}

// ReviewGrouping classifies the questions of one material for a learner and
// summarizes every material. An empty materialID selects the first material
// in catalog order. An empty mode aggregates statistics across modes.
func (s *Service) ReviewGrouping(ctx context.Context, learnerID, materialID, mode string) (Result, error) {
	if learnerID == "" {
		return Result{}, content.Invalid("learner_id", "must not be empty")
	}

	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list materials: %w", err)
	}

	res := Result{
		Materials:  make([]MaterialSummary, len(materials)),
		Groups:     Groups{Weak: []Item{}, LowAttempts: []Item{}, Unattempted: []Item{}},
		Thresholds: s.thresholds,
	}
	if len(materials) == 0 {
		if materialID != "" {
			return Result{}, content.NotFound("material", materialID)
		}
		return res, nil
	}

	selected := -1
	for i, m := range materials {
		if m.ID == materialID || (materialID == "" && i == 0) {
			selected = i
		}
	}
	if selected < 0 {
		return Result{}, content.NotFound("material", materialID)
	}
	res.SelectedMaterialID = materials[selected].ID

	groups := make([]Groups, len(materials))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, m := range materials {
		g.Go(func() error {
			items, err := s.Items(gctx, learnerID, m.ID, mode)
			if err != nil {
				return fmt.Errorf("material %s: %w", m.ID, err)
			}
			groups[i] = Group(items, s.thresholds)
			res.Materials[i] = MaterialSummary{Material: m, Summary: Summarize(groups[i], len(items))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res.Groups = groups[selected]
	return res, nil
}

// Items lists every question of a material in curriculum order with the
// learner's statistics.
func (s *Service) Items(ctx context.Context, learnerID, materialID, mode string) ([]Item, error) {
	units, err := s.tree.MaterialUnits(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return []Item{}, nil
	}

	unitIDs := make([]string, len(units))
	position := make(map[string]int, len(units))
	for i, u := range units {
		unitIDs[i] = u.ID
		position[u.ID] = i + 1
	}

	questions, err := s.store.ListQuestionsByUnits(ctx, unitIDs)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	stats, err := s.store.ListStatistics(ctx, learnerID, mode, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("list statistics: %w", err)
	}
	byQuestion := make(map[string]content.QuestionStatistic, len(stats))
	for _, st := range stats {
		byQuestion[st.QuestionID] = merge(byQuestion[st.QuestionID], st)
	}

	items := make([]Item, 0, len(questions))
	for _, q := range questions {
		st := byQuestion[q.ID]
		items = append(items, Item{
			QuestionID:      q.ID,
			UnitID:          q.UnitID,
			UnitOrder:       position[q.UnitID],
			QuestionOrder:   q.Order,
			Japanese:        q.Japanese,
			TotalAttempts:   st.TotalAttempts,
			CorrectCount:    st.CorrectCount,
			IncorrectCount:  st.IncorrectCount,
			Accuracy:        st.Accuracy(),
			LastAttemptedAt: st.LastAttemptedAt,
		})
	}
	slices.SortFunc(items, func(a, b Item) int {
		return cmp.Or(
			cmp.Compare(a.UnitOrder, b.UnitOrder),
			cmp.Compare(a.QuestionOrder, b.QuestionOrder),
			cmp.Compare(a.QuestionID, b.QuestionID),
		)
	})
	return items, nil
}

// merge adds b's counts to a and keeps the later attempt time.
func merge(a, b content.QuestionStatistic) content.QuestionStatistic {
	a.QuestionID = b.QuestionID
	a.LearnerID = b.LearnerID
	a.TotalAttempts += b.TotalAttempts
	a.CorrectCount += b.CorrectCount
	a.IncorrectCount += b.IncorrectCount
	if b.LastAttemptedAt != nil && (a.LastAttemptedAt == nil || b.LastAttemptedAt.After(*a.LastAttemptedAt)) {
		a.LastAttemptedAt = b.LastAttemptedAt
	}
	return a
}

// RecordAttempt adds one attempt to the learner's statistics for a question.
func (s *Service) RecordAttempt(ctx context.Context, learnerID, questionID, mode string, correct bool) (content.QuestionStatistic, error) {
	if learnerID == "" {
		return content.QuestionStatistic{}, content.Invalid("learner_id", "must not be empty")
	}
	st, err := s.store.RecordAttempt(ctx, learnerID, questionID, mode, correct, s.now().UTC())
	if err != nil {
		return content.QuestionStatistic{}, fmt.Errorf("record attempt: %w", err)
	}
	return st, nil
}
