package csvimport

import (
	"cmp"
	"slices"

	"github.com/p-n-ai/pai-content/internal/content"
)

// Group arranges rows into Material > Chapter > Unit by exact title, in the
// order each title is first seen. The first non-empty description at each
// level wins. Questions keep file order unless rows carry an order.
func Group(rows []MaterialRow) []content.MaterialInput {
	type unitAcc struct {
		input content.UnitInput
		rows  []QuestionRow
	}
	type chapterAcc struct {
		input     content.ChapterInput
		units     []*unitAcc
		unitIndex map[string]int
	}
	type materialAcc struct {
		input        content.MaterialInput
		chapters     []*chapterAcc
		chapterIndex map[string]int
	}

	var materials []*materialAcc
	materialIndex := map[string]int{}

	for _, r := range rows {
		mi, ok := materialIndex[r.Material]
		if !ok {
			mi = len(materials)
			materialIndex[r.Material] = mi
			materials = append(materials, &materialAcc{
				input:        content.MaterialInput{Name: r.Material},
				chapterIndex: map[string]int{},
			})
		}
		m := materials[mi]
		m.input.Description = cmp.Or(m.input.Description, r.MaterialDescription)

		ci, ok := m.chapterIndex[r.Chapter]
		if !ok {
			ci = len(m.chapters)
			m.chapterIndex[r.Chapter] = ci
			m.chapters = append(m.chapters, &chapterAcc{
				input:     content.ChapterInput{Name: r.Chapter},
				unitIndex: map[string]int{},
			})
		}
		c := m.chapters[ci]
		c.input.Description = cmp.Or(c.input.Description, r.ChapterDescription)

		ui, ok := c.unitIndex[r.Unit]
		if !ok {
			ui = len(c.units)
			c.unitIndex[r.Unit] = ui
			c.units = append(c.units, &unitAcc{input: content.UnitInput{Name: r.Unit}})
		}
		u := c.units[ui]
		u.input.Description = cmp.Or(u.input.Description, r.UnitDescription)
		u.rows = append(u.rows, r.QuestionRow)
	}

	out := make([]content.MaterialInput, 0, len(materials))
	for _, m := range materials {
		for _, c := range m.chapters {
			for _, u := range c.units {
				u.input.Questions = QuestionInputs(u.rows)
				c.input.Units = append(c.input.Units, u.input)
			}
			m.input.Chapters = append(m.input.Chapters, c.input)
		}
		out = append(out, m.input)
	}
	return out
}

func sortRowErrors(errs []RowError) {
	slices.SortFunc(errs, func(a, b RowError) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Field, b.Field))
	})
}
