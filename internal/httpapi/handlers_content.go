package httpapi

import (
	"errors"
	"net/http"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/hierarchy"
)

type treeResponse struct {
	hierarchy.MaterialTree
	IntegrityErrors []string `json:"integrity_errors,omitempty"`
}

func (s *server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.svc.Store.ListMaterials(r.Context())
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	if materials == nil {
		materials = []content.Material{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"materials": materials})
}

// handleMaterialTree serves the assembled tree. Integrity problems do not
// hide the tree; they are listed next to it.
func (s *server) handleMaterialTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.svc.Tree.MaterialTree(r.Context(), r.PathValue("id"))
	resp := treeResponse{MaterialTree: tree}
	if err != nil {
		if !errors.Is(err, content.ErrIntegrity) {
			writeErr(w, r, err, nil)
			return
		}
		resp.IntegrityErrors = integrityMessages(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func integrityMessages(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

type nodeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type chapterRequest struct {
	nodeRequest
	ParentID string `json:"parent_chapter_id"`
}

func (s *server) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeErr(w, r, err, nil)
		return
	}
	m, err := s.svc.Curriculum.CreateMaterial(r.Context(), curriculum.MaterialParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	var req chapterRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeErr(w, r, err, nil)
		return
	}
	c, err := s.svc.Curriculum.CreateChapter(r.Context(), curriculum.ChapterParams{
		MaterialID:  r.PathValue("id"),
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeErr(w, r, err, nil)
		return
	}
	u, err := s.svc.Curriculum.CreateUnit(r.Context(), curriculum.UnitParams{
		ChapterID:   r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req content.QuestionInput
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeErr(w, r, err, nil)
		return
	}
	q, err := s.svc.Curriculum.CreateQuestion(r.Context(), curriculum.QuestionParams{
		UnitID:        r.PathValue("id"),
		QuestionInput: req,
	})
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.svc.Curriculum.DeleteMaterial(r.Context(), r.PathValue("id")))
}

func (s *server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.svc.Curriculum.DeleteChapter(r.Context(), r.PathValue("id")))
}

func (s *server) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.svc.Curriculum.DeleteUnit(r.Context(), r.PathValue("id")))
}

func (s *server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.svc.Curriculum.DeleteQuestion(r.Context(), r.PathValue("id")))
}

func (s *server) deleted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
