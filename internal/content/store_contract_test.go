package content_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/p-n-ai/pai-content/internal/content"
)

// missingID is a well-formed id that names no row in any backend.
const missingID = "00000000-0000-0000-0000-000000000000"

type seeded struct {
	material content.Material
	root     content.Chapter
	child    content.Chapter
	unit     content.Unit
	question content.Question
}

func seedHierarchy(t *testing.T, s content.Store) seeded {
	t.Helper()
	ctx := context.Background()

	m, err := s.CreateMaterial(ctx, content.Material{Name: "JLPT N5", Description: "beginner", Order: 1})
	if err != nil {
		t.Fatalf("CreateMaterial() error = %v", err)
	}
	root, err := s.CreateChapter(ctx, content.Chapter{MaterialID: m.ID, Name: "Verbs", Order: 1})
	if err != nil {
		t.Fatalf("CreateChapter(root) error = %v", err)
	}
	child, err := s.CreateChapter(ctx, content.Chapter{MaterialID: m.ID, ParentID: root.ID, Name: "Ichidan", Level: 1, Order: 1})
	if err != nil {
		t.Fatalf("CreateChapter(child) error = %v", err)
	}
	u, err := s.CreateUnit(ctx, content.Unit{ChapterID: child.ID, Name: "Te-form", Order: 1})
	if err != nil {
		t.Fatalf("CreateUnit() error = %v", err)
	}
	q, err := s.CreateQuestion(ctx, content.Question{
		UnitID:   u.ID,
		Japanese: "たべて",
		Order:    1,
		Answers: []content.CorrectAnswer{
			{AnswerText: "eating", Order: 1},
			{AnswerText: "eat", Order: 2},
		},
		Vocabulary: &content.VocabularyEntry{
			Headword:          "食べる",
			PrimaryDefinition: "to eat",
			Synonyms:          []string{"食う"},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	return seeded{material: m, root: root, child: child, unit: u, question: q}
}

// runStoreContract checks the behavior every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) content.Store) {
	t.Run("hierarchy round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed := seedHierarchy(t, s)

		if seed.material.ID == "" || seed.question.ID == "" {
			t.Fatal("created rows should have ids")
		}
		m, err := s.GetMaterial(ctx, seed.material.ID)
		if err != nil || m.Name != "JLPT N5" || m.Description != "beginner" {
			t.Errorf("GetMaterial() = %+v, %v", m, err)
		}

		child, err := s.GetChapter(ctx, seed.child.ID)
		if err != nil || child.ParentID != seed.root.ID || child.Level != 1 {
			t.Errorf("GetChapter(child) = %+v, %v", child, err)
		}
		chapters, err := s.ListChaptersByMaterial(ctx, seed.material.ID)
		if err != nil || len(chapters) != 2 {
			t.Errorf("ListChaptersByMaterial() = %d chapters, %v; want 2", len(chapters), err)
		}

		units, err := s.ListUnitsByChapters(ctx, []string{seed.root.ID, seed.child.ID})
		if err != nil || len(units) != 1 || units[0].ID != seed.unit.ID {
			t.Errorf("ListUnitsByChapters() = %+v, %v", units, err)
		}

		q, err := s.GetQuestion(ctx, seed.question.ID)
		if err != nil {
			t.Fatalf("GetQuestion() error = %v", err)
		}
		if len(q.Answers) != 2 || q.Answers[0].AnswerText != "eating" || q.Answers[1].Order != 2 {
			t.Errorf("answers = %+v", q.Answers)
		}
		if q.Answers[0].ID == "" || q.Answers[0].QuestionID != q.ID {
			t.Errorf("answer ids not set: %+v", q.Answers[0])
		}
		if q.Vocabulary == nil || q.Vocabulary.Headword != "食べる" || len(q.Vocabulary.Synonyms) != 1 {
			t.Errorf("vocabulary = %+v", q.Vocabulary)
		}

		counts, err := s.CountQuestionsByUnits(ctx, []string{seed.unit.ID})
		if err != nil || counts[seed.unit.ID] != 1 {
			t.Errorf("CountQuestionsByUnits() = %v, %v", counts, err)
		}
	})

	t.Run("find by name", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed := seedHierarchy(t, s)

		m, ok, err := s.FindMaterialByName(ctx, "JLPT N5")
		if err != nil || !ok || m.ID != seed.material.ID {
			t.Errorf("FindMaterialByName() = %+v, %v, %v", m, ok, err)
		}
		if _, ok, err := s.FindMaterialByName(ctx, "jlpt n5"); err != nil || ok {
			t.Errorf("name match should be exact: ok = %v, err = %v", ok, err)
		}

		c, ok, err := s.FindChapterByName(ctx, seed.material.ID, "", "Verbs")
		if err != nil || !ok || c.ID != seed.root.ID {
			t.Errorf("FindChapterByName(root) = %+v, %v, %v", c, ok, err)
		}
		if _, ok, _ := s.FindChapterByName(ctx, seed.material.ID, "", "Ichidan"); ok {
			t.Error("child chapter should not match in the root scope")
		}
		c, ok, err = s.FindChapterByName(ctx, seed.material.ID, seed.root.ID, "Ichidan")
		if err != nil || !ok || c.ID != seed.child.ID {
			t.Errorf("FindChapterByName(child) = %+v, %v, %v", c, ok, err)
		}

		u, ok, err := s.FindUnitByName(ctx, seed.child.ID, "Te-form")
		if err != nil || !ok || u.ID != seed.unit.ID {
			t.Errorf("FindUnitByName() = %+v, %v, %v", u, ok, err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		checks := map[string]error{}
		_, checks["GetMaterial"] = s.GetMaterial(ctx, missingID)
		_, checks["GetChapter"] = s.GetChapter(ctx, missingID)
		_, checks["GetUnit"] = s.GetUnit(ctx, missingID)
		_, checks["GetQuestion"] = s.GetQuestion(ctx, missingID)
		checks["DeleteMaterial"] = s.DeleteMaterial(ctx, missingID)
		checks["DeleteQuestion"] = s.DeleteQuestion(ctx, missingID)
		_, checks["RecordAttempt"] = s.RecordAttempt(ctx, "u1", missingID, "", true, time.Now())

		for op, err := range checks {
			if !errors.Is(err, content.ErrNotFound) {
				t.Errorf("%s error = %v, want ErrNotFound", op, err)
			}
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed := seedHierarchy(t, s)

		if err := s.DeleteChapter(ctx, seed.root.ID); err != nil {
			t.Fatalf("DeleteChapter() error = %v", err)
		}
		if _, err := s.GetChapter(ctx, seed.child.ID); !errors.Is(err, content.ErrNotFound) {
			t.Errorf("child chapter survived: %v", err)
		}
		if _, err := s.GetUnit(ctx, seed.unit.ID); !errors.Is(err, content.ErrNotFound) {
			t.Errorf("unit survived: %v", err)
		}
		if _, err := s.GetQuestion(ctx, seed.question.ID); !errors.Is(err, content.ErrNotFound) {
			t.Errorf("question survived: %v", err)
		}
		if _, err := s.GetMaterial(ctx, seed.material.ID); err != nil {
			t.Errorf("material should remain: %v", err)
		}
	})

	t.Run("sibling orders", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed := seedHierarchy(t, s)

		ids := []string{seed.unit.ID}
		for i, name := range []string{"Masu", "Dictionary"} {
			u, err := s.CreateUnit(ctx, content.Unit{ChapterID: seed.child.ID, Name: name, Order: i + 2})
			if err != nil {
				t.Fatalf("CreateUnit() error = %v", err)
			}
			ids = append(ids, u.ID)
		}
		g := content.UnitsGroup(seed.child.ID)

		got, err := s.SiblingOrders(ctx, g)
		if err != nil || len(got) != 3 || got[0].ID != ids[0] || got[2].Order != 3 {
			t.Fatalf("SiblingOrders() = %+v, %v", got, err)
		}

		err = s.SetSiblingOrders(ctx, g, []content.Sibling{{ID: ids[0], Order: 3}, {ID: missingID, Order: 1}}, nil)
		if !errors.Is(err, content.ErrValidation) {
			t.Fatalf("foreign id error = %v, want ErrValidation", err)
		}
		if after, _ := s.SiblingOrders(ctx, g); after[0].ID != ids[0] || after[0].Order != 1 {
			t.Errorf("failed batch was partially applied: %+v", after)
		}

		reversed := []content.Sibling{{ID: ids[2], Order: 1}, {ID: ids[1], Order: 2}, {ID: ids[0], Order: 3}}

		refused := errors.New("refused")
		var seen []content.Sibling
		err = s.SetSiblingOrders(ctx, g, reversed, func(current []content.Sibling) error {
			seen = current
			return refused
		})
		if !errors.Is(err, refused) {
			t.Fatalf("SetSiblingOrders() with failing check error = %v, want refused", err)
		}
		if len(seen) != 3 || seen[0].ID != ids[0] || seen[2].ID != ids[2] {
			t.Errorf("check saw %+v, want the current group in order", seen)
		}
		if after, _ := s.SiblingOrders(ctx, g); after[0].ID != ids[0] {
			t.Errorf("write went through a failing check: %+v", after)
		}

		if err := s.SetSiblingOrders(ctx, g, reversed, func([]content.Sibling) error { return nil }); err != nil {
			t.Fatalf("SetSiblingOrders() error = %v", err)
		}
		after, _ := s.SiblingOrders(ctx, g)
		for i, want := range reversed {
			if after[i] != want {
				t.Errorf("after[%d] = %+v, want %+v", i, after[i], want)
			}
		}

		answers := content.AnswersGroup(seed.question.ID)
		got, err = s.SiblingOrders(ctx, answers)
		if err != nil || len(got) != 2 {
			t.Fatalf("answer siblings = %+v, %v", got, err)
		}
		swap := []content.Sibling{{ID: got[1].ID, Order: 1}, {ID: got[0].ID, Order: 2}}
		if err := s.SetSiblingOrders(ctx, answers, swap, nil); err != nil {
			t.Fatalf("SetSiblingOrders(answers) error = %v", err)
		}
		q, _ := s.GetQuestion(ctx, seed.question.ID)
		if q.Answers[0].AnswerText != "eat" {
			t.Errorf("answers after swap = %+v, want eat first", q.Answers)
		}
	})

	t.Run("transactions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		boom := errors.New("boom")

		err := s.WithTx(ctx, func(tx content.Store) error {
			if _, err := tx.CreateMaterial(ctx, content.Material{Name: "rolled back", Order: 1}); err != nil {
				return err
			}
			return tx.WithTx(ctx, func(inner content.Store) error {
				if _, err := inner.CreateMaterial(ctx, content.Material{Name: "inner", Order: 2}); err != nil {
					return err
				}
				return boom
			})
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx() error = %v, want boom", err)
		}
		if list, _ := s.ListMaterials(ctx); len(list) != 0 {
			t.Errorf("rolled back tx left %d materials", len(list))
		}

		// Writes made outside the transaction while it is open are not
		// undone by its rollback.
		seed := seedHierarchy(t, s)
		err = s.WithTx(ctx, func(tx content.Store) error {
			if _, err := tx.CreateMaterial(ctx, content.Material{Name: "discarded", Order: 3}); err != nil {
				return err
			}
			if _, err := s.RecordAttempt(ctx, "u1", seed.question.ID, "", true, time.Now()); err != nil {
				return err
			}
			if _, err := s.CreateMaterial(ctx, content.Material{Name: "outside", Order: 4}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx() error = %v, want boom", err)
		}
		if _, ok, _ := s.FindMaterialByName(ctx, "discarded"); ok {
			t.Error("rolled back material is visible")
		}
		if _, ok, _ := s.FindMaterialByName(ctx, "outside"); !ok {
			t.Error("material created outside the transaction was lost")
		}
		stats, _ := s.ListStatistics(ctx, "u1", "", []string{seed.question.ID})
		if len(stats) != 1 || stats[0].TotalAttempts != 1 {
			t.Errorf("statistics after rollback = %+v, want one attempt", stats)
		}

		err = s.WithTx(ctx, func(tx content.Store) error {
			_, err := tx.CreateMaterial(ctx, content.Material{Name: "kept", Order: 1})
			return err
		})
		if err != nil {
			t.Fatalf("WithTx() error = %v", err)
		}
		if _, ok, _ := s.FindMaterialByName(ctx, "kept"); !ok {
			t.Error("committed material not visible")
		}
	})

	t.Run("statistics", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed := seedHierarchy(t, s)
		qid := seed.question.ID

		early := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		late := early.Add(time.Hour)
		if _, err := s.RecordAttempt(ctx, "u1", qid, "typing", false, late); err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}
		st, err := s.RecordAttempt(ctx, "u1", qid, "typing", true, early)
		if err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}
		if st.TotalAttempts != 2 || st.CorrectCount != 1 || st.IncorrectCount != 1 {
			t.Errorf("typing stat = %+v", st)
		}
		if st.LastAttemptedAt == nil || !st.LastAttemptedAt.Equal(late) {
			t.Errorf("LastAttemptedAt = %v, want the later attempt %v", st.LastAttemptedAt, late)
		}
		if _, err := s.RecordAttempt(ctx, "u1", qid, "flashcard", true, early); err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}
		if _, err := s.RecordAttempt(ctx, "u2", qid, "typing", true, early); err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}

		all, err := s.ListStatistics(ctx, "u1", "", []string{qid})
		if err != nil || len(all) != 2 {
			t.Fatalf("ListStatistics(all modes) = %+v, %v", all, err)
		}
		typing, err := s.ListStatistics(ctx, "u1", "typing", []string{qid})
		if err != nil || len(typing) != 1 || typing[0].TotalAttempts != 2 {
			t.Errorf("ListStatistics(typing) = %+v, %v", typing, err)
		}
		if got, _ := s.ListStatistics(ctx, "u3", "", []string{qid}); len(got) != 0 {
			t.Errorf("unknown learner has %d rows", len(got))
		}
	})
}
