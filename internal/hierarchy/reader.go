package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-content/internal/content"
)

// MaterialTree is a material with its assembled chapter forest.
type MaterialTree struct {
	content.Material
	Chapters []*ChapterNode `json:"chapters"`
}

// Reader loads and assembles material trees from a store.
type Reader struct {
	store content.Store
}

// NewReader creates a tree reader over store.
func NewReader(store content.Store) *Reader {
	return &Reader{store: store}
}

// MaterialTree loads every chapter, unit and question count of a material and
// assembles them. Integrity problems are logged and returned together with
// the tree; callers serving reads may choose to ignore content.ErrIntegrity.
func (r *Reader) MaterialTree(ctx context.Context, materialID string) (MaterialTree, error) {
	var (
		material content.Material
		chapters []content.Chapter
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := r.store.GetMaterial(gctx, materialID)
		if err != nil {
			return fmt.Errorf("get material: %w", err)
		}
		material = m
		return nil
	})
	g.Go(func() error {
		cs, err := r.store.ListChaptersByMaterial(gctx, materialID)
		if err != nil {
			return fmt.Errorf("list chapters: %w", err)
		}
		chapters = cs
		return nil
	})
	if err := g.Wait(); err != nil {
		return MaterialTree{}, err
	}

	units, err := r.unitNodes(ctx, chapters)
	if err != nil {
		return MaterialTree{}, err
	}

	roots, err := Assemble(chapters, units)
	if roots == nil {
		roots = []*ChapterNode{}
	}
	tree := MaterialTree{Material: material, Chapters: roots}
	if err != nil {
		slog.Warn("material tree failed integrity checks", "material_id", materialID, "error", err)
		return tree, err
	}
	return tree, nil
}

// MaterialUnits returns a material's units in curriculum order (chapter
// preorder, then unit order), skipping chapters that fail integrity checks.
func (r *Reader) MaterialUnits(ctx context.Context, materialID string) ([]UnitNode, error) {
	tree, err := r.MaterialTree(ctx, materialID)
	if err != nil && !errors.Is(err, content.ErrIntegrity) {
		return nil, err
	}
	return Units(tree.Chapters), nil
}

func (r *Reader) unitNodes(ctx context.Context, chapters []content.Chapter) ([]UnitNode, error) {
	if len(chapters) == 0 {
		return nil, nil
	}
	ids := make([]string, len(chapters))
	for i, c := range chapters {
		ids[i] = c.ID
	}

	units, err := r.store.ListUnitsByChapters(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	unitIDs := make([]string, len(units))
	for i, u := range units {
		unitIDs[i] = u.ID
	}
	counts, err := r.store.CountQuestionsByUnits(ctx, unitIDs)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	out := make([]UnitNode, len(units))
	for i, u := range units {
		out[i] = UnitNode{Unit: u, QuestionCount: counts[u.ID]}
	}
	return out, nil
}
