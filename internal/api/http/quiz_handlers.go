package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizcraft/quizcraft-core/internal/catalog"
	"github.com/quizcraft/quizcraft-core/internal/rbac"
)

// IngestQuizHandler loads a quiz definition into the catalog. Quiz
// authoring lives outside this service; this is the seam it pushes
// definitions through.
func IngestQuizHandler(cat catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var z catalog.Quiz
		if err := json.NewDecoder(r.Body).Decode(&z); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if z.ID == "" || z.Title == "" {
			http.Error(w, "id and title required", http.StatusBadRequest)
			return
		}
		for _, q := range z.Questions {
			if !q.Type.Valid() {
				http.Error(w, "unknown question type: "+string(q.Type), http.StatusBadRequest)
				return
			}
		}
		if err := cat.PutQuiz(r.Context(), z); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]string{"id": z.ID})
	}
}

// GetQuizHandler serves quiz structure. Students get the answer-safe
// view; graders see correctness flags.
func GetQuizHandler(cat catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		z, err := cat.GetQuiz(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "teacher" && role != "admin" {
			z = z.StudentView()
		}
		writeJSON(w, z)
	}
}
