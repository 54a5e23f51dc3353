package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quizcraft/quizcraft-core/internal/attempt"
	authmw "github.com/quizcraft/quizcraft-core/internal/auth/middleware"
)

type manualGradeReq struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback,omitempty"`
}

// POST /answers/{answerID}/grade
func ManualGradeHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answerID := strings.TrimSpace(chi.URLParam(r, "answerID"))
		if answerID == "" {
			http.Error(w, "answerID required", http.StatusBadRequest)
			return
		}
		var req manualGradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		gradedBy := authmw.SubjectFromContext(r.Context())
		ans, err := svc.ManuallyGradeAnswer(r.Context(), answerID, req.Score, req.Feedback, gradedBy)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, ans)
	}
}
