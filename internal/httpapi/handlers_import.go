package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/csvimport"
	"github.com/p-n-ai/pai-content/internal/importer"
)

const xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type importResponse struct {
	Summary   importer.Summary     `json:"summary"`
	RowErrors []csvimport.RowError `json:"row_errors"`
}

// importOptions are the query parameters shared by every import route.
type importOptions struct {
	strict bool
	format string
	sheet  string
}

func parseImportOptions(r *http.Request) (importOptions, error) {
	q := r.URL.Query()
	opts := importOptions{
		format: strings.ToLower(q.Get("format")),
		sheet:  q.Get("sheet"),
	}
	if v := q.Get("strict"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, content.Invalid("strict", "must be a boolean, got %q", v)
		}
		opts.strict = b
	}
	switch opts.format {
	case "", "csv", "xlsx":
	default:
		return opts, content.Invalid("format", "must be csv or xlsx, got %q", opts.format)
	}
	return opts, nil
}

// readRecords reads the upload as a raw body or as the "file" part of a
// multipart form, and tokenizes it as CSV or XLSX.
func (s *server) readRecords(w http.ResponseWriter, r *http.Request, opts importOptions) ([]csvimport.Record, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxImportBytes)

	var (
		body     io.Reader = r.Body
		filename string
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, fh, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, content.Invalid("file", "multipart upload needs a file part: %v", err)
		}
		defer file.Close()
		body = file
		filename = fh.Filename
		mediaType, _, _ = mime.ParseMediaType(fh.Header.Get("Content-Type"))
	}

	if isWorkbook(opts.format, mediaType, filename) {
		return csvimport.ReadWorkbook(body, opts.sheet)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, content.Invalid("file", "CSV input must be UTF-8")
	}
	return csvimport.ReadText(string(data), s.cfg.Delimiter)
}

func isWorkbook(format, mediaType, filename string) bool {
	switch format {
	case "xlsx":
		return true
	case "csv":
		return false
	}
	return mediaType == xlsxMediaType || strings.EqualFold(path.Ext(filename), ".xlsx")
}

// rejectRows answers a strict import that had row errors. Nothing is written.
func rejectRows(w http.ResponseWriter, rowErrs []csvimport.RowError) {
	writeError(w, http.StatusBadRequest, "row_errors",
		fmt.Sprintf("%d rows failed validation", len(rowErrs)), "", rowErrs)
}

func respondImport(w http.ResponseWriter, r *http.Request, summary importer.Summary, rowErrs []csvimport.RowError, err error) {
	if err != nil {
		writeErr(w, r, err, summary)
		return
	}
	if rowErrs == nil {
		rowErrs = []csvimport.RowError{}
	}
	writeJSON(w, http.StatusOK, importResponse{Summary: summary, RowErrors: rowErrs})
}

func (s *server) handleImportMaterials(w http.ResponseWriter, r *http.Request) {
	opts, err := parseImportOptions(r)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	records, err := s.readRecords(w, r, opts)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	res, err := csvimport.ParseMaterials(records)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	if opts.strict && len(res.Errors) > 0 {
		rejectRows(w, res.Errors)
		return
	}

	summary, err := s.svc.Importer.ImportMaterials(r.Context(), res.Materials)
	respondImport(w, r, summary, res.Errors, err)
}

func (s *server) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	opts, err := parseImportOptions(r)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	records, err := s.readRecords(w, r, opts)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	res, err := csvimport.ParseUnitQuestions(records)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	if opts.strict && len(res.Errors) > 0 {
		rejectRows(w, res.Errors)
		return
	}

	summary, err := s.svc.Importer.ImportUnitQuestions(r.Context(), r.PathValue("id"), res.Rows)
	respondImport(w, r, summary, res.Errors, err)
}

func (s *server) handleImportVocabulary(w http.ResponseWriter, r *http.Request) {
	opts, err := parseImportOptions(r)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	records, err := s.readRecords(w, r, opts)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	res, err := csvimport.ParseVocabulary(records)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	if opts.strict && len(res.Errors) > 0 {
		rejectRows(w, res.Errors)
		return
	}

	summary, err := s.svc.Importer.ImportVocabulary(r.Context(), r.PathValue("id"), res.Rows)
	respondImport(w, r, summary, res.Errors, err)
}
