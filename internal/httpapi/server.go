// Package httpapi exposes the content operations as thin JSON handlers.
package httpapi

import (
	"context"
	"net/http"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/hierarchy"
	"github.com/p-n-ai/pai-content/internal/importer"
	"github.com/p-n-ai/pai-content/internal/ordering"
	"github.com/p-n-ai/pai-content/internal/review"
)

const defaultMaxBodyBytes = 1 << 20

// Config holds request limits.
type Config struct {
	MaxImportBytes int64
	MaxBodyBytes   int64
	// Delimiter is the CSV field separator; 0 detects it per file.
	Delimiter rune
}

// Services are the operations the handlers call.
type Services struct {
	Store      content.Store
	Curriculum *curriculum.Service
	Importer   *importer.Importer
	Order      *ordering.Engine
	Review     *review.Service
	Tree       *hierarchy.Reader
}

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type server struct {
	cfg    Config
	svc    Services
	checks []ReadyCheck
}

// NewHandler builds the routed, logged handler.
func NewHandler(cfg Config, svc Services, checks ...ReadyCheck) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = 10 << 20
	}
	if svc.Tree == nil {
		svc.Tree = hierarchy.NewReader(svc.Store)
	}
	s := &server{cfg: cfg, svc: svc, checks: checks}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /v1/materials", s.handleListMaterials)
	mux.HandleFunc("POST /v1/materials", s.handleCreateMaterial)
	mux.HandleFunc("DELETE /v1/materials/{id}", s.handleDeleteMaterial)
	mux.HandleFunc("GET /v1/materials/{id}/tree", s.handleMaterialTree)
	mux.HandleFunc("POST /v1/materials/{id}/chapters", s.handleCreateChapter)
	mux.HandleFunc("DELETE /v1/chapters/{id}", s.handleDeleteChapter)
	mux.HandleFunc("POST /v1/chapters/{id}/units", s.handleCreateUnit)
	mux.HandleFunc("DELETE /v1/units/{id}", s.handleDeleteUnit)
	mux.HandleFunc("POST /v1/units/{id}/questions", s.handleCreateQuestion)
	mux.HandleFunc("DELETE /v1/questions/{id}", s.handleDeleteQuestion)

	mux.HandleFunc("POST /v1/imports/materials", s.handleImportMaterials)
	mux.HandleFunc("POST /v1/units/{id}/imports/questions", s.handleImportQuestions)
	mux.HandleFunc("POST /v1/units/{id}/imports/vocabulary", s.handleImportVocabulary)

	mux.HandleFunc("GET /v1/order/{kind}", s.handleGetOrder)
	mux.HandleFunc("PUT /v1/order/{kind}", s.handleReorder)

	mux.HandleFunc("GET /v1/learners/{id}/review", s.handleReview)
	mux.HandleFunc("POST /v1/learners/{id}/attempts", s.handleRecordAttempt)

	var h http.Handler = mux
	h = recoverMiddleware(h)
	h = accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}
