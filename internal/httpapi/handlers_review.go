package httpapi

import (
	"net/http"

	"github.com/p-n-ai/pai-content/internal/content"
)

func (s *server) handleReview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.Review.ReviewGrouping(r.Context(), r.PathValue("id"), q.Get("material"), q.Get("mode"))
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type attemptRequest struct {
	QuestionID string `json:"question_id"`
	Mode       string `json:"mode"`
	Correct    *bool  `json:"correct"`
}

func (s *server) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeErr(w, r, err, nil)
		return
	}
	if req.Correct == nil {
		writeErr(w, r, content.Invalid("correct", "is required"), nil)
		return
	}

	stat, err := s.svc.Review.RecordAttempt(r.Context(), r.PathValue("id"), req.QuestionID, req.Mode, *req.Correct)
	if err != nil {
		writeErr(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, stat)
}
