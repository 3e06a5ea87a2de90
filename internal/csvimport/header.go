package csvimport

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NormalizeHeader folds compatibility and full-width forms, lower-cases and
// drops all whitespace, so "Correct Answer 1" and "ＣｏｒｒｅｃｔＡｎｓｗｅｒ１"
// both become "correctanswer1".
func NormalizeHeader(s string) string {
	s = width.Fold.String(norm.NFKC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// column is a single-valued field.
type column struct {
	name     string
	label    string
	aliases  []string
	required bool
}

// family is a multi-valued field spread over numbered columns such as
// Answer1..AnswerN. A fallback column without a suffix is read only when no
// numbered column is present.
type family struct {
	name      string
	label     string
	prefixes  []string
	fallbacks []string
	required  bool
}

// schema describes the columns one importer understands.
type schema struct {
	columns  []column
	families []family
	patterns []*regexp.Regexp // one per family
	aliases  map[string]string
}

func newSchema(columns []column, families []family) *schema {
	s := &schema{columns: columns, families: families, aliases: map[string]string{}}
	for _, c := range columns {
		for _, a := range c.aliases {
			s.aliases[NormalizeHeader(a)] = c.name
		}
	}
	for _, f := range families {
		quoted := make([]string, len(f.prefixes))
		for i, p := range f.prefixes {
			quoted[i] = regexp.QuoteMeta(NormalizeHeader(p))
		}
		s.patterns = append(s.patterns,
			regexp.MustCompile(`^(?:`+strings.Join(quoted, "|")+`)[-_.]?(\d+)$`))
	}
	return s
}

// header maps field names to column indexes for one file.
type header struct {
	columns  map[string]int
	families map[string][]int
}

type numbered struct {
	col, n int
}

// resolve matches header cells against the schema. Repeating columns are
// ordered by numeric suffix, then by position for equal suffixes.
func (s *schema) resolve(cells []string) (*header, error) {
	h := &header{columns: map[string]int{}, families: map[string][]int{}}
	found := make([][]numbered, len(s.families))
	fallback := make([]int, len(s.families))
	for i := range fallback {
		fallback[i] = -1
	}

	for col, cell := range cells {
		key := NormalizeHeader(cell)
		if key == "" {
			continue
		}
		if name, ok := s.aliases[key]; ok {
			if _, seen := h.columns[name]; !seen {
				h.columns[name] = col
			}
			continue
		}
		for fi, f := range s.families {
			if m := s.patterns[fi].FindStringSubmatch(key); m != nil {
				n, err := strconv.Atoi(m[1])
				if err == nil {
					found[fi] = append(found[fi], numbered{col: col, n: n})
				}
				break
			}
			if fallback[fi] < 0 && slices.ContainsFunc(f.fallbacks, func(fb string) bool {
				return NormalizeHeader(fb) == key
			}) {
				fallback[fi] = col
				break
			}
		}
	}

	for fi, f := range s.families {
		cols := found[fi]
		slices.SortStableFunc(cols, func(a, b numbered) int {
			return cmp.Or(cmp.Compare(a.n, b.n), cmp.Compare(a.col, b.col))
		})
		for _, c := range cols {
			h.families[f.name] = append(h.families[f.name], c.col)
		}
		if len(cols) == 0 && fallback[fi] >= 0 {
			h.families[f.name] = []int{fallback[fi]}
		}
	}

	var missing []string
	for _, c := range s.columns {
		if _, ok := h.columns[c.name]; c.required && !ok {
			missing = append(missing, c.label)
		}
	}
	for _, f := range s.families {
		if _, ok := h.families[f.name]; f.required && !ok {
			missing = append(missing, f.label)
		}
	}
	if len(missing) > 0 {
		return nil, &HeaderError{Missing: missing}
	}
	return h, nil
}

// value returns the trimmed cell of a single-valued field.
func (h *header) value(r Record, name string) string {
	col, ok := h.columns[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.field(col))
}

// has reports whether the header carries the field.
func (h *header) has(name string) bool {
	_, ok := h.columns[name]
	return ok
}

// values reads a repeating field in suffix order, trimming each cell,
// dropping empties and keeping the first of any duplicates.
func (h *header) values(r Record, name string) []string {
	var out []string
	for _, col := range h.families[name] {
		v := strings.TrimSpace(r.field(col))
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// order parses the optional order column. Zero means absent. Whole numbers
// written as floats ("2.0", as spreadsheets export them) are accepted;
// positions are 1-based, so zero and negatives are not.
func (h *header) order(r Record) (int, *RowError) {
	raw := h.value(r, fieldOrder)
	if raw == "" {
		return 0, nil
	}
	// Folding lets full-width digits through.
	n, ok := parseOrder(NormalizeHeader(raw))
	if !ok {
		return 0, &RowError{Row: r.Line, Field: fieldOrder, Message: fmt.Sprintf("%q is not a positive whole number", raw)}
	}
	return n, nil
}

func parseOrder(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 1
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
