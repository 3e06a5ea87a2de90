package httpapi

import (
	"net/http"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/ordering"
)

type reorderRequest struct {
	ScopeID         string   `json:"scope_id"`
	ParentID        string   `json:"parent_id"`
	IDs             []string `json:"ids"`
	ExpectedVersion *int64   `json:"expected_version"`
}

type orderResponse struct {
	Group   content.SiblingGroup `json:"group"`
	Orders  []content.Sibling    `json:"orders"`
	Version int64                `json:"version"`
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	g := content.SiblingGroup{
		Kind:     content.GroupKind(r.PathValue("kind")),
		ScopeID:  r.URL.Query().Get("scope_id"),
		ParentID: r.URL.Query().Get("parent_id"),
	}
	if err := g.Validate(); err != nil {
		writeErr(w, r, err, nil)
		return
	}

	orders, err := s.svc.Order.Sorted(r.Context(), g)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	version, err := s.svc.Order.Version(r.Context(), g)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	if orders == nil {
		orders = []content.Sibling{}
	}
	writeJSON(w, http.StatusOK, orderResponse{Group: g, Orders: orders, Version: version})
}

func (s *server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeErr(w, r, err, nil)
		return
	}

	res, err := s.svc.Order.Reorder(r.Context(), ordering.ReorderRequest{
		Group: content.SiblingGroup{
			Kind:     content.GroupKind(r.PathValue("kind")),
			ScopeID:  req.ScopeID,
			ParentID: req.ParentID,
		},
		OrderedIDs:      req.IDs,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(res))
}
