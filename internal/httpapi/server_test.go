package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-content/internal/audit"
	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/httpapi"
	"github.com/p-n-ai/pai-content/internal/importer"
	"github.com/p-n-ai/pai-content/internal/ordering"
	"github.com/p-n-ai/pai-content/internal/review"
)

type testEnv struct {
	handler http.Handler
	store   *content.MemoryStore
	events  *audit.MemoryEventLogger
}

func newTestEnv(t *testing.T, cfg httpapi.Config, checks ...httpapi.ReadyCheck) *testEnv {
	t.Helper()
	store := content.NewMemoryStore()
	events := audit.NewMemoryEventLogger()
	order := ordering.NewEngine(ordering.EngineConfig{
		Store:    store,
		Versions: ordering.NewMemoryVersions(),
		Events:   events,
	})
	svc := curriculum.NewService(store, order)
	h := httpapi.NewHandler(cfg, httpapi.Services{
		Store:      store,
		Curriculum: svc,
		Importer:   importer.New(svc, events),
		Order:      order,
		Review:     review.NewService(store, review.DefaultThresholds),
	}, checks...)
	return &testEnv{handler: h, store: store, events: events}
}

func (e *testEnv) do(t *testing.T, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, "application/json", strings.NewReader(body))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

type errorResponse struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Field   string          `json:"field"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type importResponse struct {
	Summary   importer.Summary `json:"summary"`
	RowErrors []struct {
		Row   int    `json:"row"`
		Field string `json:"field"`
	} `json:"row_errors"`
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

const materialsCSV = `Material,Chapter,Unit,Japanese,CorrectAnswer1,CorrectAnswer2
N5,Verbs,Te-form,たべて,eating,eat
N5,Verbs,Te-form,,drink,
N5,Nouns,Food,りんご,apple,
`

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz returns 200", "/healthz", http.StatusOK, `{"status":"ok"}`},
		{"readyz returns 200", "/readyz", http.StatusOK, `{"status":"ready"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Error("X-Request-Id header not set")
			}
		})
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{},
		httpapi.ReadyCheck{Name: "database", Check: func(context.Context) error { return nil }},
		httpapi.ReadyCheck{Name: "cache", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	rec := env.do(t, http.MethodGet, "/readyz", "", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)

	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, rec)
	if body.Status != "unavailable" {
		t.Errorf("status = %q, want unavailable", body.Status)
	}
	if body.Checks["cache"] != "connection refused" {
		t.Errorf("checks = %v, want cache failure", body.Checks)
	}
	if _, ok := body.Checks["database"]; ok {
		t.Errorf("healthy check reported as failed: %v", body.Checks)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-42" {
		t.Errorf("X-Request-Id = %q, want req-42", got)
	}
}

func TestImportMaterials_CSV(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})

	rec := env.do(t, http.MethodPost, "/v1/imports/materials", "text/csv", strings.NewReader(materialsCSV))
	expectStatus(t, rec, http.StatusOK)

	res := decode[importResponse](t, rec)
	want := importer.Summary{
		MaterialsCreated: 1,
		ChaptersCreated:  2,
		UnitsCreated:     2,
		QuestionsCreated: 2,
		AnswersCreated:   3,
	}
	if res.Summary != want {
		t.Errorf("summary = %+v, want %+v", res.Summary, want)
	}
	if len(res.RowErrors) != 1 || res.RowErrors[0].Row != 3 || res.RowErrors[0].Field != "japanese" {
		t.Errorf("row_errors = %+v, want one japanese error on row 3", res.RowErrors)
	}

	rec = env.do(t, http.MethodGet, "/v1/materials", "", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decode[struct {
		Materials []content.Material `json:"materials"`
	}](t, rec)
	if len(list.Materials) != 1 || list.Materials[0].Name != "N5" {
		t.Fatalf("materials = %+v, want [N5]", list.Materials)
	}

	rec = env.do(t, http.MethodGet, "/v1/materials/"+list.Materials[0].ID+"/tree", "", nil)
	expectStatus(t, rec, http.StatusOK)
	tree := decode[struct {
		Name     string `json:"name"`
		Chapters []struct {
			Name  string `json:"name"`
			Units []struct {
				Name          string `json:"name"`
				QuestionCount int    `json:"question_count"`
			} `json:"units"`
		} `json:"chapters"`
		IntegrityErrors []string `json:"integrity_errors"`
	}](t, rec)
	if tree.Name != "N5" || len(tree.Chapters) != 2 {
		t.Fatalf("tree = %+v", tree)
	}
	if tree.Chapters[0].Name != "Verbs" || tree.Chapters[1].Name != "Nouns" {
		t.Errorf("chapter order = %s, %s; want Verbs, Nouns", tree.Chapters[0].Name, tree.Chapters[1].Name)
	}
	if u := tree.Chapters[0].Units; len(u) != 1 || u[0].QuestionCount != 1 {
		t.Errorf("Verbs units = %+v, want one unit with one question", u)
	}
	if len(tree.IntegrityErrors) != 0 {
		t.Errorf("integrity_errors = %v", tree.IntegrityErrors)
	}
	if n := len(env.events.Events()); n != 1 {
		t.Errorf("audit events = %d, want 1", n)
	}
}

func TestImportMaterials_Strict(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})

	rec := env.do(t, http.MethodPost, "/v1/imports/materials?strict=true", "text/csv", strings.NewReader(materialsCSV))
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[errorResponse](t, rec); body.Error.Code != "row_errors" {
		t.Errorf("code = %q, want row_errors", body.Error.Code)
	}

	materials, err := env.store.ListMaterials(context.Background())
	if err != nil {
		t.Fatalf("ListMaterials() error = %v", err)
	}
	if len(materials) != 0 {
		t.Errorf("strict import wrote %d materials", len(materials))
	}
}

func TestImportMaterials_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		cfg        httpapi.Config
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing columns",
			path:       "/v1/imports/materials",
			body:       "Material,Japanese\nN5,たべる\n",
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_columns",
		},
		{
			name:       "empty file",
			path:       "/v1/imports/materials",
			body:       "\n\n",
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "body too large",
			cfg:        httpapi.Config{MaxImportBytes: 16},
			path:       "/v1/imports/materials",
			body:       materialsCSV,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "too_large",
		},
		{
			name:       "bad strict flag",
			path:       "/v1/imports/materials?strict=maybe",
			body:       materialsCSV,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "unknown format",
			path:       "/v1/imports/materials?format=ods",
			body:       materialsCSV,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.cfg)
			rec := env.do(t, http.MethodPost, tt.path, "text/csv", strings.NewReader(tt.body))
			expectStatus(t, rec, tt.wantStatus)
			if body := decode[errorResponse](t, rec); body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (message %q)", body.Error.Code, tt.wantCode, body.Error.Message)
			}
		})
	}
}

func TestImportMaterials_MultipartWorkbook(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})

	f := excelize.NewFile()
	rows := [][]any{
		{"Material", "Chapter", "Unit", "Japanese", "Answer"},
		{"N4", "Verbs", "Potential", "たべられる", "can eat"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	xlsx, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	_ = f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "n4.xlsx")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(xlsx.Bytes()); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/v1/imports/materials", mw.FormDataContentType(), &body)
	expectStatus(t, rec, http.StatusOK)

	res := decode[importResponse](t, rec)
	if res.Summary.MaterialsCreated != 1 || res.Summary.QuestionsCreated != 1 {
		t.Errorf("summary = %+v, want one material and one question", res.Summary)
	}
}

// seedUnit creates a material, chapter and unit through the API and returns
// the unit id.
func seedUnit(t *testing.T, env *testEnv) (materialID, chapterID, unitID string) {
	t.Helper()
	rec := env.doJSON(t, http.MethodPost, "/v1/materials", `{"name":"N5"}`)
	expectStatus(t, rec, http.StatusCreated)
	m := decode[content.Material](t, rec)

	rec = env.doJSON(t, http.MethodPost, "/v1/materials/"+m.ID+"/chapters", `{"name":"Verbs"}`)
	expectStatus(t, rec, http.StatusCreated)
	c := decode[content.Chapter](t, rec)

	rec = env.doJSON(t, http.MethodPost, "/v1/chapters/"+c.ID+"/units", `{"name":"Te-form"}`)
	expectStatus(t, rec, http.StatusCreated)
	u := decode[content.Unit](t, rec)
	return m.ID, c.ID, u.ID
}

func TestCreateAndDelete(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})
	materialID, chapterID, unitID := seedUnit(t, env)

	rec := env.doJSON(t, http.MethodPost, "/v1/materials/"+materialID+"/chapters",
		`{"name":"Ichidan","parent_chapter_id":"`+chapterID+`"}`)
	expectStatus(t, rec, http.StatusCreated)
	if child := decode[content.Chapter](t, rec); child.Level != 1 || child.Order != 1 {
		t.Errorf("child chapter level/order = %d/%d, want 1/1", child.Level, child.Order)
	}

	rec = env.doJSON(t, http.MethodPost, "/v1/units/"+unitID+"/questions",
		`{"japanese":"たべて","answers":["eating"," eat "]}`)
	expectStatus(t, rec, http.StatusCreated)
	q := decode[content.Question](t, rec)
	if len(q.Answers) != 2 || q.Answers[1].AnswerText != "eat" || q.Order != 1 {
		t.Errorf("question = %+v", q)
	}

	expectStatus(t, env.do(t, http.MethodDelete, "/v1/questions/"+q.ID, "", nil), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodDelete, "/v1/questions/"+q.ID, "", nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodDelete, "/v1/materials/"+materialID, "", nil), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, "/v1/materials/"+materialID+"/tree", "", nil), http.StatusNotFound)
}

func TestCreate_Errors(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})
	_, _, unitID := seedUnit(t, env)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"empty name", "/v1/materials", `{"name":"  "}`, http.StatusBadRequest, "name"},
		{"unknown field", "/v1/materials", `{"name":"N3","level":2}`, http.StatusBadRequest, "body"},
		{"malformed json", "/v1/materials", `{"name":`, http.StatusBadRequest, "body"},
		{"missing material", "/v1/materials/nope/chapters", `{"name":"Verbs"}`, http.StatusNotFound, ""},
		{"missing chapter", "/v1/chapters/nope/units", `{"name":"Food"}`, http.StatusNotFound, ""},
		{"question without answers", "/v1/units/" + unitID + "/questions", `{"japanese":"たべる","answers":[]}`, http.StatusBadRequest, "answers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, http.MethodPost, tt.path, tt.body)
			expectStatus(t, rec, tt.wantStatus)
			if body := decode[errorResponse](t, rec); body.Error.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Error.Field, tt.wantField)
			}
		})
	}
}

func TestImportIntoUnit(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})
	_, _, unitID := seedUnit(t, env)

	questions := "Question,Answer1,Answer2,Order\nのんで,drinking,,2\nたべて,eating,eat,1\n"
	rec := env.do(t, http.MethodPost, "/v1/units/"+unitID+"/imports/questions", "text/csv", strings.NewReader(questions))
	expectStatus(t, rec, http.StatusOK)
	if res := decode[importResponse](t, rec); res.Summary.QuestionsCreated != 2 || res.Summary.AnswersCreated != 3 {
		t.Errorf("question summary = %+v", res.Summary)
	}

	vocabulary := "Headword\tReading\tDefinition1\tDefinition2\n食べる\tたべる\tto eat\tto consume\n"
	rec = env.do(t, http.MethodPost, "/v1/units/"+unitID+"/imports/vocabulary", "text/tab-separated-values", strings.NewReader(vocabulary))
	expectStatus(t, rec, http.StatusOK)
	if res := decode[importResponse](t, rec); res.Summary.QuestionsCreated != 1 {
		t.Errorf("vocabulary summary = %+v", res.Summary)
	}

	qs, err := env.store.ListQuestionsByUnits(context.Background(), []string{unitID})
	if err != nil {
		t.Fatalf("ListQuestionsByUnits() error = %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("questions = %d, want 3", len(qs))
	}
	byOrder := map[int]content.Question{}
	for _, q := range qs {
		byOrder[q.Order] = q
	}
	if byOrder[1].Japanese != "たべて" || byOrder[2].Japanese != "のんで" {
		t.Errorf("order column not honored: 1=%q 2=%q", byOrder[1].Japanese, byOrder[2].Japanese)
	}
	vocab := byOrder[3]
	if vocab.Japanese != "to eat" || vocab.Vocabulary == nil || vocab.Vocabulary.Headword != "食べる" {
		t.Errorf("vocabulary question = %+v", vocab)
	}

	rec = env.do(t, http.MethodPost, "/v1/units/missing/imports/questions", "text/csv", strings.NewReader(questions))
	expectStatus(t, rec, http.StatusNotFound)
}

func TestReorder(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})
	_, chapterID, first := seedUnit(t, env)

	ids := []string{first}
	for _, name := range []string{"Masu", "Dictionary"} {
		rec := env.doJSON(t, http.MethodPost, "/v1/chapters/"+chapterID+"/units", `{"name":"`+name+`"}`)
		expectStatus(t, rec, http.StatusCreated)
		ids = append(ids, decode[content.Unit](t, rec).ID)
	}

	type orderBody struct {
		Orders  []content.Sibling `json:"orders"`
		Version int64             `json:"version"`
	}

	rec := env.do(t, http.MethodGet, "/v1/order/unit?scope_id="+chapterID, "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[orderBody](t, rec); len(got.Orders) != 3 || got.Version != 0 || got.Orders[0].ID != ids[0] {
		t.Fatalf("initial order = %+v", got)
	}

	reversed := `{"scope_id":"` + chapterID + `","ids":["` + ids[2] + `","` + ids[1] + `","` + ids[0] + `"],"expected_version":0}`
	rec = env.doJSON(t, http.MethodPut, "/v1/order/unit", reversed)
	expectStatus(t, rec, http.StatusOK)
	got := decode[orderBody](t, rec)
	if got.Version != 1 || len(got.Orders) != 3 || got.Orders[0].ID != ids[2] || got.Orders[0].Order != 1 || got.Orders[2].Order != 3 {
		t.Fatalf("reorder result = %+v", got)
	}

	rec = env.doJSON(t, http.MethodPut, "/v1/order/unit", reversed)
	expectStatus(t, rec, http.StatusConflict)

	partial := `{"scope_id":"` + chapterID + `","ids":["` + ids[0] + `"]}`
	rec = env.doJSON(t, http.MethodPut, "/v1/order/unit", partial)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.doJSON(t, http.MethodPut, "/v1/order/shelf", `{"scope_id":"x","ids":[]}`)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodGet, "/v1/order/unit?scope_id="+chapterID, "", nil)
	expectStatus(t, rec, http.StatusOK)
	if after := decode[orderBody](t, rec); after.Orders[0].ID != ids[2] || after.Version != 1 {
		t.Errorf("rejected requests changed the order: %+v", after)
	}
}

func TestReviewAndAttempts(t *testing.T) {
	env := newTestEnv(t, httpapi.Config{})
	_, _, unitID := seedUnit(t, env)

	var questionIDs []string
	for _, body := range []string{
		`{"japanese":"たべて","answers":["eating"]}`,
		`{"japanese":"のんで","answers":["drinking"]}`,
	} {
		rec := env.doJSON(t, http.MethodPost, "/v1/units/"+unitID+"/questions", body)
		expectStatus(t, rec, http.StatusCreated)
		questionIDs = append(questionIDs, decode[content.Question](t, rec).ID)
	}

	for range 2 {
		rec := env.doJSON(t, http.MethodPost, "/v1/learners/u1/attempts",
			`{"question_id":"`+questionIDs[0]+`","mode":"typing","correct":false}`)
		expectStatus(t, rec, http.StatusCreated)
	}
	rec := env.doJSON(t, http.MethodPost, "/v1/learners/u1/attempts", `{"question_id":"`+questionIDs[0]+`","mode":"typing"}`)
	expectStatus(t, rec, http.StatusBadRequest)
	rec = env.doJSON(t, http.MethodPost, "/v1/learners/u1/attempts", `{"question_id":"missing","correct":true}`)
	expectStatus(t, rec, http.StatusNotFound)

	rec = env.do(t, http.MethodGet, "/v1/learners/u1/review", "", nil)
	expectStatus(t, rec, http.StatusOK)
	res := decode[review.Result](t, rec)
	if len(res.Groups.Weak) != 1 || res.Groups.Weak[0].QuestionID != questionIDs[0] {
		t.Errorf("weak = %+v", res.Groups.Weak)
	}
	if len(res.Groups.LowAttempts) != 1 || len(res.Groups.Unattempted) != 1 || res.Groups.Unattempted[0].QuestionID != questionIDs[1] {
		t.Errorf("groups = %+v", res.Groups)
	}
	if len(res.Materials) != 1 || res.Materials[0].Summary.TotalQuestionCount != 2 {
		t.Errorf("materials = %+v", res.Materials)
	}

	rec = env.do(t, http.MethodGet, "/v1/learners/u1/review?mode=flashcard", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if res := decode[review.Result](t, rec); len(res.Groups.Unattempted) != 2 {
		t.Errorf("flashcard unattempted = %d, want 2", len(res.Groups.Unattempted))
	}

	rec = env.do(t, http.MethodGet, "/v1/learners/u1/review?material=missing", "", nil)
	expectStatus(t, rec, http.StatusNotFound)
}
