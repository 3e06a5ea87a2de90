package csvimport

import (
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-content/internal/content"
)

// ErrEmptyFile is returned for input with no non-blank rows.
var ErrEmptyFile = &content.ValidationError{Field: "file", Message: "file has no rows"}

// HeaderError lists every required column the header lacks. No row is
// parsed when it is returned.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *HeaderError) Is(target error) bool { return target == content.ErrValidation }

// RowError reports why one data row was skipped.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}
