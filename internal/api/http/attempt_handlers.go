package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quizcraft/quizcraft-core/internal/attempt"
	authmw "github.com/quizcraft/quizcraft-core/internal/auth/middleware"
	"github.com/quizcraft/quizcraft-core/internal/grading"
	"github.com/quizcraft/quizcraft-core/internal/rbac"
)

// POST /attempts  { "quiz_id": "..." }
// The student is the authenticated subject; teachers/admins may start
// an attempt on behalf of a student by passing student_id.
func CreateAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID    string `json:"quiz_id"`
			StudentID string `json:"student_id,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" {
			http.Error(w, "quiz_id required", http.StatusBadRequest)
			return
		}
		studentID := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if req.StudentID != "" && (role == "teacher" || role == "admin") {
			studentID = req.StudentID
		}
		if studentID == "" {
			http.Error(w, "student unknown", http.StatusBadRequest)
			return
		}
		v, err := svc.StartAttempt(r.Context(), req.QuizID, studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

// POST /attempts/{attemptID}/answers
// { "question_id": "...", "selected_option_ids": [...], "text": "..." }
func SubmitAnswerHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		var req struct {
			QuestionID        string   `json:"question_id"`
			SelectedOptionIDs []string `json:"selected_option_ids,omitempty"`
			Text              string   `json:"text,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuestionID == "" {
			http.Error(w, "question_id required", http.StatusBadRequest)
			return
		}
		if !ownsAttempt(r, svc, attemptID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ans, err := svc.SubmitAnswer(r.Context(), attemptID, req.QuestionID, grading.Submission{
			SelectedOptionIDs: req.SelectedOptionIDs,
			Text:              req.Text,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, ans)
	}
}

// POST /attempts/{attemptID}/submit
func FinalizeAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		if !ownsAttempt(r, svc, attemptID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		a, err := svc.FinalizeAttempt(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !canViewAttempt(r, a.StudentID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, a)
	}
}

// GET /attempts/{attemptID}/detail
func GetAttemptDetailHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.GetDetailedAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !canViewAttempt(r, d.Attempt.StudentID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, d)
	}
}

// GET /attempts?quiz_id=...&student_id=...&status=...&limit=50&offset=0
// Callers without attempt:view-all are scoped to their own attempts.
func ListAttemptsHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := authmw.SubjectFromContext(r.Context())

		quizID := strings.TrimSpace(r.URL.Query().Get("quiz_id"))
		studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		if role != "admin" && role != "teacher" {
			studentID = sub
		}

		list, err := svc.ListAttempts(r.Context(), attempt.ListOpts{
			QuizID:    quizID,
			StudentID: studentID,
			Status:    attempt.Status(status),
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, list)
	}
}

func canViewAttempt(r *http.Request, ownerID string) bool {
	role := rbac.RoleFromContext(r.Context())
	if role == "teacher" || role == "admin" {
		return true
	}
	return authmw.SubjectFromContext(r.Context()) == ownerID
}

// ownsAttempt guards mutating student routes: only the attempt's owner
// (or a teacher/admin) may touch it. Unknown attempts pass through so
// the service can answer with its own NotFound.
func ownsAttempt(r *http.Request, svc *attempt.Service, attemptID string) bool {
	a, err := svc.GetAttempt(r.Context(), attemptID)
	if err != nil {
		return true
	}
	return canViewAttempt(r, a.StudentID)
}
