// Package csvimport parses delimited text and spreadsheets into question,
// vocabulary and material-hierarchy rows.
package csvimport

import (
	"strings"
	"unicode/utf8"
)

const bom = "\uFEFF"

// Record is one logical row. Line is the physical line the row starts on,
// counting the header as line 1.
type Record struct {
	Line   int
	Fields []string
}

func (r Record) blank() bool {
	for _, f := range r.Fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// field returns the cell at i, or "" when the row is short.
func (r Record) field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// DetectDelimiter picks the most frequent of comma, tab and semicolon on
// the first line, ignoring quoted text. Comma wins ties and empty input.
func DetectDelimiter(text string) rune {
	text = strings.TrimPrefix(text, bom)
	counts := map[rune]int{}
	inQuotes := false
	for _, r := range text {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if r == '\n' || r == '\r' {
			break
		}
		if r == ',' || r == '\t' || r == ';' {
			counts[r]++
		}
	}

	best := ','
	for _, r := range []rune{'\t', ';'} {
		if counts[r] > counts[best] {
			best = r
		}
	}
	return best
}

// Tokenize splits text into records. Fields may be wrapped in double quotes;
// inside quotes a doubled quote is a literal quote and delimiters and line
// breaks are data. Outside quotes CR, LF and CRLF each end a row. Rows whose
// cells are all whitespace are dropped. A leading UTF-8 BOM is ignored and
// an unterminated quote runs to the end of the input.
func Tokenize(text string, delim rune) []Record {
	text = strings.TrimPrefix(text, bom)

	var (
		records   []Record
		fields    []string
		field     strings.Builder
		inQuotes  bool
		quoted    bool // current field opened with a quote
		line      = 1
		startLine = 1
		pending   bool // anything seen since the last row break
	)

	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
		quoted = false
	}
	endRecord := func() {
		endField()
		rec := Record{Line: startLine, Fields: fields}
		if !rec.blank() {
			records = append(records, rec)
		}
		fields = nil
		pending = false
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size

		if inQuotes {
			switch r {
			case '"':
				if i < len(text) && text[i] == '"' {
					field.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			case '\r':
				field.WriteByte('\r')
				if i < len(text) && text[i] == '\n' {
					field.WriteByte('\n')
					i++
				}
				line++
			case '\n':
				field.WriteByte('\n')
				line++
			default:
				field.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '"' && field.Len() == 0 && !quoted:
			inQuotes, quoted, pending = true, true, true
		case r == delim:
			endField()
			pending = true
		case r == '\r' || r == '\n':
			if r == '\r' && i < len(text) && text[i] == '\n' {
				i++
			}
			endRecord()
			line++
			startLine = line
		default:
			field.WriteRune(r)
			pending = true
		}
	}
	if pending || field.Len() > 0 || len(fields) > 0 {
		endRecord()
	}
	return records
}
