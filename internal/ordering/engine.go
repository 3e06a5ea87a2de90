// Package ordering keeps sibling positions dense and applies client-driven
// reorders as a single atomic batch.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/p-n-ai/pai-content/internal/audit"
	"github.com/p-n-ai/pai-content/internal/content"
)

// NextOrder returns the position for a new sibling: one past the current
// maximum, or 1 for an empty group. Existing siblings are never renumbered.
func NextOrder(siblings []content.Sibling) int {
	next := 1
	for _, s := range siblings {
		if s.Order >= next {
			next = s.Order + 1
		}
	}
	return next
}

// ValidatePermutation checks that ordered names every current sibling exactly
// once and nothing else.
func ValidatePermutation(current []content.Sibling, ordered []string) error {
	members := make(map[string]struct{}, len(current))
	for _, s := range current {
		members[s.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(ordered))
	var foreign, duplicate []string
	for _, id := range ordered {
		if _, ok := seen[id]; ok {
			duplicate = append(duplicate, id)
			continue
		}
		seen[id] = struct{}{}
		if _, ok := members[id]; !ok {
			foreign = append(foreign, id)
		}
	}

	var missing []string
	for _, s := range current {
		if _, ok := seen[s.ID]; !ok {
			missing = append(missing, s.ID)
		}
	}

	switch {
	case len(foreign) > 0:
		return content.Invalid("ids", "not in group: %v", foreign)
	case len(duplicate) > 0:
		return content.Invalid("ids", "listed more than once: %v", duplicate)
	case len(missing) > 0:
		return content.Invalid("ids", "missing siblings: %v", missing)
	}
	return nil
}

// Renumber assigns order = index + 1 to every id.
func Renumber(ordered []string) []content.Sibling {
	out := make([]content.Sibling, len(ordered))
	for i, id := range ordered {
		out[i] = content.Sibling{ID: id, Order: i + 1}
	}
	return out
}

// EngineConfig holds dependencies for the ordering engine.
type EngineConfig struct {
	Store    content.OrderStore
	Versions Versioner         // optional; enables ExpectedVersion checks
	Events   audit.EventLogger // optional
}

// Engine applies the create and reorder rules to a store.
type Engine struct {
	store    content.OrderStore
	versions Versioner
	events   audit.EventLogger
}

// NewEngine creates a new ordering engine.
func NewEngine(cfg EngineConfig) *Engine {
	events := cfg.Events
	if events == nil {
		events = audit.NopEventLogger{}
	}
	return &Engine{
		store:    cfg.Store,
		versions: cfg.Versions,
		events:   events,
	}
}

// WithStore returns an engine sharing versions and events but bound to store,
// typically a transaction.
func (e *Engine) WithStore(store content.OrderStore) *Engine {
	clone := *e
	clone.store = store
	return &clone
}

// NextOrder reads the group and returns the position for a new sibling.
func (e *Engine) NextOrder(ctx context.Context, g content.SiblingGroup) (int, error) {
	siblings, err := e.store.SiblingOrders(ctx, g)
	if err != nil {
		return 0, fmt.Errorf("read siblings: %w", err)
	}
	return NextOrder(siblings), nil
}

// ReorderRequest is a full new ordering of one sibling group.
type ReorderRequest struct {
	Group      content.SiblingGroup `json:"group"`
	OrderedIDs []string             `json:"ordered_ids"`
	// ExpectedVersion, when set, must match the group's current version.
	// It is rejected when the engine has no version store.
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

// ReorderResult reports the persisted ordering.
type ReorderResult struct {
	Group   content.SiblingGroup `json:"group"`
	Orders  []content.Sibling    `json:"orders"`
	Version int64                `json:"version"`
}

// Reorder validates that req.OrderedIDs is exactly the current sibling set
// and persists order = index + 1 for every id in one batch. The permutation
// check, the version comparison and the version bump run while the store
// holds the group locked, so two callers with the same expected version
// cannot both win. Nothing is written when any of them fails.
func (e *Engine) Reorder(ctx context.Context, req ReorderRequest) (ReorderResult, error) {
	g := req.Group
	if err := g.Validate(); err != nil {
		return ReorderResult{}, err
	}
	if req.ExpectedVersion != nil && e.versions == nil {
		return ReorderResult{}, content.Invalid("expected_version", "group versions are not enabled")
	}

	var version int64
	orders := Renumber(req.OrderedIDs)
	err := e.store.SetSiblingOrders(ctx, g, orders, func(current []content.Sibling) error {
		if err := ValidatePermutation(current, req.OrderedIDs); err != nil {
			return err
		}
		if e.versions == nil {
			return nil
		}
		if req.ExpectedVersion != nil {
			v, err := e.versions.Version(ctx, g)
			if err != nil {
				return fmt.Errorf("read group version: %w", err)
			}
			if v != *req.ExpectedVersion {
				return &content.ConflictError{Expected: *req.ExpectedVersion, Actual: v}
			}
		}
		v, err := e.versions.Bump(ctx, g)
		if err != nil {
			return fmt.Errorf("bump group version: %w", err)
		}
		version = v
		return nil
	})
	if err != nil {
		if errors.Is(err, content.ErrValidation) || errors.Is(err, content.ErrConflict) {
			return ReorderResult{}, err
		}
		return ReorderResult{}, fmt.Errorf("persist order: %w", err)
	}

	result := ReorderResult{Group: g, Orders: orders, Version: version}
	slog.Info("siblings reordered",
		"group", g.Key(),
		"count", len(orders),
		"version", result.Version,
	)
	audit.Log(ctx, e.events, audit.Event{
		EventType: audit.EventSiblingsReordered,
		SubjectID: g.Key(),
		Data: map[string]any{
			"kind":    string(g.Kind),
			"count":   len(orders),
			"version": result.Version,
		},
	})

	return result, nil
}

// Version returns the group's current optimistic version, or 0 when
// versioning is disabled.
func (e *Engine) Version(ctx context.Context, g content.SiblingGroup) (int64, error) {
	if e.versions == nil {
		return 0, nil
	}
	return e.versions.Version(ctx, g)
}

// Sorted returns the group's siblings in read order.
func (e *Engine) Sorted(ctx context.Context, g content.SiblingGroup) ([]content.Sibling, error) {
	siblings, err := e.store.SiblingOrders(ctx, g)
	if err != nil {
		return nil, err
	}
	siblings = slices.Clone(siblings)
	slices.SortStableFunc(siblings, func(a, b content.Sibling) int { return a.Order - b.Order })
	return siblings, nil
}
