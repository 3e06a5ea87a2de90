package content

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type statKey struct {
	learnerID  string
	questionID string
	mode       string
}

type memoryState struct {
	materials map[string]Material
	chapters  map[string]Chapter
	units     map[string]Unit
	questions map[string]Question
	stats     map[statKey]QuestionStatistic
}

func newMemoryState() *memoryState {
	return &memoryState{
		materials: make(map[string]Material),
		chapters:  make(map[string]Chapter),
		units:     make(map[string]Unit),
		questions: make(map[string]Question),
		stats:     make(map[statKey]QuestionStatistic),
	}
}

// MemoryStore is an in-memory implementation of Store for tests and
// single-process use.
type MemoryStore struct {
	mu    *sync.RWMutex
	txMu  *sync.Mutex
	state *memoryState
	now   func() time.Time
	undo  *undoLog // set on transaction handles
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:    &sync.RWMutex{},
		txMu:  &sync.Mutex{},
		state: newMemoryState(),
		now:   time.Now,
	}
}

// WithTx runs fn against a handle that journals every row it writes. When fn
// fails only those rows are restored; writes made through other handles in
// the meantime survive. Transactions are serialized against each other and
// nested calls join the outer one.
func (s *MemoryStore) WithTx(_ context.Context, fn func(Store) error) error {
	if s.undo != nil {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &MemoryStore{mu: s.mu, txMu: s.txMu, state: s.state, now: s.now, undo: &undoLog{seen: make(map[undoKey]struct{})}}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		tx.undo.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

type undoKey struct {
	table string
	key   any
}

// undoLog keeps the value each row had before the transaction first wrote it.
type undoLog struct {
	seen  map[undoKey]struct{}
	steps []func()
}

func (u *undoLog) rollback() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps, u.seen = nil, nil
}

// remember journals m[k] on its first write in the transaction. Callers hold mu.
func remember[K comparable, V any](u *undoLog, table string, m map[K]V, k K) {
	if u == nil {
		return
	}
	key := undoKey{table: table, key: k}
	if _, ok := u.seen[key]; ok {
		return
	}
	u.seen[key] = struct{}{}
	prev, existed := m[k]
	u.steps = append(u.steps, func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

func putRow[K comparable, V any](u *undoLog, table string, m map[K]V, k K, v V) {
	remember(u, table, m, k)
	m[k] = v
}

func dropRow[K comparable, V any](u *undoLog, table string, m map[K]V, k K) {
	remember(u, table, m, k)
	delete(m, k)
}

// --- Materials ---

func (s *MemoryStore) CreateMaterial(_ context.Context, m Material) (Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = s.now(), s.now()
	putRow(s.undo, "materials", s.state.materials, m.ID, m)
	return m, nil
}

func (s *MemoryStore) GetMaterial(_ context.Context, id string) (Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.state.materials[id]
	if !ok {
		return Material{}, NotFound("material", id)
	}
	return m, nil
}

func (s *MemoryStore) ListMaterials(_ context.Context) ([]Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Collect(maps.Values(s.state.materials))
	slices.SortFunc(out, func(a, b Material) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) FindMaterialByName(_ context.Context, name string) (Material, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []Material
	for _, m := range s.state.materials {
		if m.Name == name {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return Material{}, false, nil
	}
	return oldest(found, func(m Material) (time.Time, string) { return m.CreatedAt, m.ID }), true, nil
}

func (s *MemoryStore) DeleteMaterial(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.materials[id]; !ok {
		return NotFound("material", id)
	}
	for cid, c := range s.state.chapters {
		if c.MaterialID == id {
			s.deleteChapterLocked(cid)
		}
	}
	dropRow(s.undo, "materials", s.state.materials, id)
	return nil
}

// --- Chapters ---

func (s *MemoryStore) CreateChapter(_ context.Context, c Chapter) (Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.materials[c.MaterialID]; !ok {
		return Chapter{}, NotFound("material", c.MaterialID)
	}
	if !c.IsRoot() {
		if _, ok := s.state.chapters[c.ParentID]; !ok {
			return Chapter{}, NotFound("chapter", c.ParentID)
		}
	}
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	putRow(s.undo, "chapters", s.state.chapters, c.ID, c)
	return c, nil
}

func (s *MemoryStore) GetChapter(_ context.Context, id string) (Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.state.chapters[id]
	if !ok {
		return Chapter{}, NotFound("chapter", id)
	}
	return c, nil
}

func (s *MemoryStore) ListChaptersByMaterial(_ context.Context, materialID string) ([]Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Chapter
	for _, c := range s.state.chapters {
		if c.MaterialID == materialID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b Chapter) int {
		return cmp.Or(cmp.Compare(a.Level, b.Level), cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) FindChapterByName(_ context.Context, materialID, parentID, name string) (Chapter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []Chapter
	for _, c := range s.state.chapters {
		if c.MaterialID == materialID && c.ParentID == parentID && c.Name == name {
			found = append(found, c)
		}
	}
	if len(found) == 0 {
		return Chapter{}, false, nil
	}
	return oldest(found, func(c Chapter) (time.Time, string) { return c.CreatedAt, c.ID }), true, nil
}

func (s *MemoryStore) DeleteChapter(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.chapters[id]; !ok {
		return NotFound("chapter", id)
	}
	s.deleteChapterLocked(id)
	return nil
}

func (s *MemoryStore) deleteChapterLocked(id string) {
	for cid, c := range s.state.chapters {
		if c.ParentID == id {
			s.deleteChapterLocked(cid)
		}
	}
	for uid, u := range s.state.units {
		if u.ChapterID == id {
			s.deleteUnitLocked(uid)
		}
	}
	dropRow(s.undo, "chapters", s.state.chapters, id)
}

// --- Units ---

func (s *MemoryStore) CreateUnit(_ context.Context, u Unit) (Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.chapters[u.ChapterID]; !ok {
		return Unit{}, NotFound("chapter", u.ChapterID)
	}
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = s.now(), s.now()
	putRow(s.undo, "units", s.state.units, u.ID, u)
	return u, nil
}

func (s *MemoryStore) GetUnit(_ context.Context, id string) (Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.state.units[id]
	if !ok {
		return Unit{}, NotFound("unit", id)
	}
	return u, nil
}

func (s *MemoryStore) ListUnitsByChapters(_ context.Context, chapterIDs []string) ([]Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := toSet(chapterIDs)
	var out []Unit
	for _, u := range s.state.units {
		if _, ok := want[u.ChapterID]; ok {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b Unit) int {
		return cmp.Or(cmp.Compare(a.ChapterID, b.ChapterID), cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) FindUnitByName(_ context.Context, chapterID, name string) (Unit, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []Unit
	for _, u := range s.state.units {
		if u.ChapterID == chapterID && u.Name == name {
			found = append(found, u)
		}
	}
	if len(found) == 0 {
		return Unit{}, false, nil
	}
	return oldest(found, func(u Unit) (time.Time, string) { return u.CreatedAt, u.ID }), true, nil
}

func (s *MemoryStore) DeleteUnit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.units[id]; !ok {
		return NotFound("unit", id)
	}
	s.deleteUnitLocked(id)
	return nil
}

func (s *MemoryStore) deleteUnitLocked(id string) {
	for qid, q := range s.state.questions {
		if q.UnitID == id {
			s.deleteQuestionLocked(qid)
		}
	}
	dropRow(s.undo, "units", s.state.units, id)
}

// --- Questions ---

func (s *MemoryStore) CreateQuestion(_ context.Context, q Question) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.units[q.UnitID]; !ok {
		return Question{}, NotFound("unit", q.UnitID)
	}
	now := s.now()
	q.ID = uuid.NewString()
	q.CreatedAt, q.UpdatedAt = now, now
	q = cloneQuestion(q)
	for i := range q.Answers {
		q.Answers[i].ID = uuid.NewString()
		q.Answers[i].QuestionID = q.ID
		q.Answers[i].CreatedAt, q.Answers[i].UpdatedAt = now, now
	}
	putRow(s.undo, "questions", s.state.questions, q.ID, q)
	return cloneQuestion(q), nil
}

func (s *MemoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.state.questions[id]
	if !ok {
		return Question{}, NotFound("question", id)
	}
	return cloneQuestion(q), nil
}

func (s *MemoryStore) ListQuestionsByUnits(_ context.Context, unitIDs []string) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := toSet(unitIDs)
	var out []Question
	for _, q := range s.state.questions {
		if _, ok := want[q.UnitID]; ok {
			out = append(out, cloneQuestion(q))
		}
	}
	slices.SortFunc(out, func(a, b Question) int {
		return cmp.Or(cmp.Compare(a.UnitID, b.UnitID), cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) CountQuestionsByUnits(_ context.Context, unitIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(unitIDs))
	for _, id := range unitIDs {
		counts[id] = 0
	}
	for _, q := range s.state.questions {
		if _, ok := counts[q.UnitID]; ok {
			counts[q.UnitID]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.questions[id]; !ok {
		return NotFound("question", id)
	}
	s.deleteQuestionLocked(id)
	return nil
}

func (s *MemoryStore) deleteQuestionLocked(id string) {
	for k := range s.state.stats {
		if k.questionID == id {
			dropRow(s.undo, "stats", s.state.stats, k)
		}
	}
	dropRow(s.undo, "questions", s.state.questions, id)
}

// --- Ordering ---

func (s *MemoryStore) SiblingOrders(_ context.Context, g SiblingGroup) ([]Sibling, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.siblingsLocked(g), nil
}

func (s *MemoryStore) SetSiblingOrders(_ context.Context, g SiblingGroup, orders []Sibling, check SiblingCheck) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	siblings := s.siblingsLocked(g)
	if check != nil {
		if err := check(slices.Clone(siblings)); err != nil {
			return err
		}
	}
	current := make(map[string]struct{}, len(siblings))
	for _, sib := range siblings {
		current[sib.ID] = struct{}{}
	}
	for _, o := range orders {
		if _, ok := current[o.ID]; !ok {
			return Invalid("ids", "%s is not in group %s", o.ID, g)
		}
	}

	now := s.now()
	for _, o := range orders {
		switch g.Kind {
		case KindMaterial:
			m := s.state.materials[o.ID]
			m.Order, m.UpdatedAt = o.Order, now
			putRow(s.undo, "materials", s.state.materials, o.ID, m)
		case KindChapter:
			c := s.state.chapters[o.ID]
			c.Order, c.UpdatedAt = o.Order, now
			putRow(s.undo, "chapters", s.state.chapters, o.ID, c)
		case KindUnit:
			u := s.state.units[o.ID]
			u.Order, u.UpdatedAt = o.Order, now
			putRow(s.undo, "units", s.state.units, o.ID, u)
		case KindQuestion:
			q := s.state.questions[o.ID]
			q.Order, q.UpdatedAt = o.Order, now
			putRow(s.undo, "questions", s.state.questions, o.ID, q)
		case KindAnswer:
			q := cloneQuestion(s.state.questions[g.ScopeID])
			for i := range q.Answers {
				if q.Answers[i].ID == o.ID {
					q.Answers[i].Order, q.Answers[i].UpdatedAt = o.Order, now
				}
			}
			slices.SortFunc(q.Answers, func(a, b CorrectAnswer) int {
				return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
			})
			putRow(s.undo, "questions", s.state.questions, g.ScopeID, q)
		}
	}
	return nil
}

func (s *MemoryStore) siblingsLocked(g SiblingGroup) []Sibling {
	var out []Sibling
	switch g.Kind {
	case KindMaterial:
		for _, m := range s.state.materials {
			out = append(out, Sibling{ID: m.ID, Order: m.Order})
		}
	case KindChapter:
		for _, c := range s.state.chapters {
			if c.MaterialID == g.ScopeID && c.ParentID == g.ParentID {
				out = append(out, Sibling{ID: c.ID, Order: c.Order})
			}
		}
	case KindUnit:
		for _, u := range s.state.units {
			if u.ChapterID == g.ScopeID {
				out = append(out, Sibling{ID: u.ID, Order: u.Order})
			}
		}
	case KindQuestion:
		for _, q := range s.state.questions {
			if q.UnitID == g.ScopeID {
				out = append(out, Sibling{ID: q.ID, Order: q.Order})
			}
		}
	case KindAnswer:
		if q, ok := s.state.questions[g.ScopeID]; ok {
			for _, a := range q.Answers {
				out = append(out, Sibling{ID: a.ID, Order: a.Order})
			}
		}
	}
	slices.SortFunc(out, func(a, b Sibling) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// --- Statistics ---

func (s *MemoryStore) RecordAttempt(_ context.Context, learnerID, questionID, mode string, correct bool, at time.Time) (QuestionStatistic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.questions[questionID]; !ok {
		return QuestionStatistic{}, NotFound("question", questionID)
	}
	key := statKey{learnerID: learnerID, questionID: questionID, mode: mode}
	st, ok := s.state.stats[key]
	if !ok {
		st = QuestionStatistic{LearnerID: learnerID, QuestionID: questionID, Mode: mode}
	}
	st.TotalAttempts++
	if correct {
		st.CorrectCount++
	} else {
		st.IncorrectCount++
	}
	if st.LastAttemptedAt == nil || at.After(*st.LastAttemptedAt) {
		t := at
		st.LastAttemptedAt = &t
	}
	putRow(s.undo, "stats", s.state.stats, key, st)
	return st, nil
}

func (s *MemoryStore) ListStatistics(_ context.Context, learnerID, mode string, questionIDs []string) ([]QuestionStatistic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := toSet(questionIDs)
	var out []QuestionStatistic
	for k, st := range s.state.stats {
		if k.learnerID != learnerID || (mode != "" && k.mode != mode) {
			continue
		}
		if _, ok := want[k.questionID]; ok {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b QuestionStatistic) int {
		return cmp.Or(cmp.Compare(a.QuestionID, b.QuestionID), cmp.Compare(a.Mode, b.Mode))
	})
	return out, nil
}

func cloneQuestion(q Question) Question {
	q.Answers = slices.Clone(q.Answers)
	if q.Vocabulary != nil {
		v := *q.Vocabulary
		v.SecondaryDefinitions = slices.Clone(v.SecondaryDefinitions)
		v.Synonyms = slices.Clone(v.Synonyms)
		v.Antonyms = slices.Clone(v.Antonyms)
		v.RelatedWords = slices.Clone(v.RelatedWords)
		v.Examples = slices.Clone(v.Examples)
		q.Vocabulary = &v
	}
	return q
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// oldest picks the earliest-created row so natural-key lookups are stable
// when duplicates already exist.
func oldest[T any](rows []T, key func(T) (time.Time, string)) T {
	return slices.MinFunc(rows, func(a, b T) int {
		ta, ia := key(a)
		tb, ib := key(b)
		return cmp.Or(ta.Compare(tb), cmp.Compare(ia, ib))
	})
}
