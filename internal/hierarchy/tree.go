// Package hierarchy assembles the flat chapter rows of a material into a
// nested, ordered tree.
package hierarchy

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/p-n-ai/pai-content/internal/content"
)

// UnitNode is a unit with the number of questions it holds.
type UnitNode struct {
	content.Unit
	QuestionCount int `json:"question_count"`
}

// ChapterNode is a chapter with its units and child chapters, both sorted
// by order.
type ChapterNode struct {
	content.Chapter
	Units    []UnitNode     `json:"units"`
	Children []*ChapterNode `json:"children"`
}

// Assemble links chapters into a forest in one pass over an id index.
// Units are attached to their chapter; units whose chapter is not in the set
// are ignored.
//
// A chapter whose parent is missing from the set becomes a root. Level
// mismatches and cycles are reported as *content.IntegrityError values
// joined into the returned error; the forest is still returned so callers
// can decide whether to serve it. Chapters caught in a cycle are left out
// of the forest.
func Assemble(chapters []content.Chapter, units []UnitNode) ([]*ChapterNode, error) {
	nodes := make(map[string]*ChapterNode, len(chapters))
	for _, c := range chapters {
		nodes[c.ID] = &ChapterNode{Chapter: c, Units: []UnitNode{}, Children: []*ChapterNode{}}
	}

	for _, u := range units {
		if n, ok := nodes[u.ChapterID]; ok {
			n.Units = append(n.Units, u)
		}
	}

	var errs []error
	cyclic := findCycles(nodes)
	for _, id := range sortedKeys(cyclic) {
		errs = append(errs, &content.IntegrityError{
			Kind:    "chapter",
			ID:      id,
			Message: "parent chain does not reach a root",
		})
	}

	var roots []*ChapterNode
	for _, c := range chapters {
		if _, ok := cyclic[c.ID]; ok {
			continue
		}
		n := nodes[c.ID]
		parent, ok := nodes[c.ParentID]
		if c.IsRoot() || !ok {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	sortForest(roots)
	for _, r := range roots {
		errs = append(errs, checkLevels(r, !r.IsRoot())...)
	}
	return roots, errors.Join(errs...)
}

// findCycles returns the ids of chapters whose parent chain loops without
// reaching a root or a chapter outside the set.
func findCycles(nodes map[string]*ChapterNode) map[string]struct{} {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(nodes))
	cyclic := make(map[string]struct{})

	for _, id := range sortedKeys(nodes) {
		if state[id] != unvisited {
			continue
		}
		var path []string
		cur := id
		for {
			n, ok := nodes[cur]
			if !ok || state[cur] == done {
				break
			}
			if state[cur] == visiting {
				// Everything on the path from cur onwards is part of the loop.
				start := slices.Index(path, cur)
				for _, c := range path[start:] {
					cyclic[c] = struct{}{}
				}
				break
			}
			state[cur] = visiting
			path = append(path, cur)
			if n.IsRoot() {
				break
			}
			cur = n.ParentID
		}
		for _, p := range path {
			state[p] = done
		}
	}

	// Descendants of a loop never reach a root either.
	for changed := true; changed; {
		changed = false
		for id, n := range nodes {
			if _, ok := cyclic[id]; ok || n.IsRoot() {
				continue
			}
			if _, ok := cyclic[n.ParentID]; ok {
				cyclic[id] = struct{}{}
				changed = true
			}
		}
	}
	return cyclic
}

// checkLevels verifies level == parent.level + 1 below n. A true root must
// sit at level 0; a subtree root whose parent was not supplied is trusted.
func checkLevels(n *ChapterNode, detached bool) []error {
	var errs []error
	if !detached && n.IsRoot() && n.Level != 0 {
		errs = append(errs, levelError(n, 0))
	}
	for _, child := range n.Children {
		if child.Level != n.Level+1 {
			errs = append(errs, levelError(child, n.Level+1))
		}
		errs = append(errs, checkLevels(child, false)...)
	}
	return errs
}

func levelError(n *ChapterNode, want int) error {
	return &content.IntegrityError{
		Kind:    "chapter",
		ID:      n.ID,
		Message: fmt.Sprintf("level %d, expected %d", n.Level, want),
	}
}

func sortForest(nodes []*ChapterNode) {
	slices.SortStableFunc(nodes, func(a, b *ChapterNode) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	for _, n := range nodes {
		slices.SortStableFunc(n.Units, func(a, b UnitNode) int {
			return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
		})
		sortForest(n.Children)
	}
}

// Flatten walks the forest depth-first, parents before children, in sibling
// order.
func Flatten(roots []*ChapterNode) []*ChapterNode {
	var out []*ChapterNode
	var walk func([]*ChapterNode)
	walk = func(nodes []*ChapterNode) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

// Units returns every unit in the forest in curriculum order.
func Units(roots []*ChapterNode) []UnitNode {
	var out []UnitNode
	for _, n := range Flatten(roots) {
		out = append(out, n.Units...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
