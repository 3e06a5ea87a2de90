package hierarchy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/hierarchy"
)

func TestReader_MaterialTree(t *testing.T) {
	ctx := context.Background()
	store := content.NewMemoryStore()

	m, _ := store.CreateMaterial(ctx, content.Material{Name: "N5", Order: 1})
	root, _ := store.CreateChapter(ctx, content.Chapter{MaterialID: m.ID, Name: "Verbs", Order: 1})
	child, _ := store.CreateChapter(ctx, content.Chapter{MaterialID: m.ID, ParentID: root.ID, Name: "Te-form", Level: 1, Order: 1})
	u, _ := store.CreateUnit(ctx, content.Unit{ChapterID: child.ID, Name: "Basics", Order: 1})
	for i := range 3 {
		if _, err := store.CreateQuestion(ctx, content.Question{UnitID: u.ID, Japanese: "q", Order: i + 1}); err != nil {
			t.Fatalf("CreateQuestion() error = %v", err)
		}
	}

	tree, err := hierarchy.NewReader(store).MaterialTree(ctx, m.ID)
	if err != nil {
		t.Fatalf("MaterialTree() error = %v", err)
	}
	if tree.Name != "N5" {
		t.Errorf("Name = %q, want N5", tree.Name)
	}
	if len(tree.Chapters) != 1 || len(tree.Chapters[0].Children) != 1 {
		t.Fatalf("unexpected tree shape: %+v", tree.Chapters)
	}
	units := tree.Chapters[0].Children[0].Units
	if len(units) != 1 || units[0].QuestionCount != 3 {
		t.Errorf("units = %+v, want one unit with 3 questions", units)
	}
}

func TestReader_MaterialTree_NotFound(t *testing.T) {
	_, err := hierarchy.NewReader(content.NewMemoryStore()).MaterialTree(context.Background(), "nope")
	if !errors.Is(err, content.ErrNotFound) {
		t.Errorf("MaterialTree() error = %v, want ErrNotFound", err)
	}
}

func TestReader_MaterialTree_Empty(t *testing.T) {
	ctx := context.Background()
	store := content.NewMemoryStore()
	m, _ := store.CreateMaterial(ctx, content.Material{Name: "Empty", Order: 1})

	tree, err := hierarchy.NewReader(store).MaterialTree(ctx, m.ID)
	if err != nil {
		t.Fatalf("MaterialTree() error = %v", err)
	}
	if tree.Chapters == nil || len(tree.Chapters) != 0 {
		t.Errorf("Chapters = %#v, want empty non-nil slice", tree.Chapters)
	}
}
