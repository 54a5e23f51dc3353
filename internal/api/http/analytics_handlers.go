package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizcraft/quizcraft-core/internal/analytics"
)

// GET /quizzes/{quizID}/analytics
func QuizAnalyticsHandler(e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := e.QuizAnalytics(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rep)
	}
}

// quizMetricHandler serves the scalar per-quiz metrics under one shape.
func quizMetricHandler(name string, f func(r *http.Request, quizID string) (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		v, err := f(r, quizID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"quiz_id": quizID, name: v})
	}
}

// GET /quizzes/{quizID}/analytics/difficulty
func QuizDifficultyHandler(e *analytics.Engine) http.HandlerFunc {
	return quizMetricHandler("difficulty", func(r *http.Request, id string) (float64, error) {
		return e.QuizDifficulty(r.Context(), id)
	})
}

// GET /quizzes/{quizID}/analytics/completion-rate
func CompletionRateHandler(e *analytics.Engine) http.HandlerFunc {
	return quizMetricHandler("completion_rate", func(r *http.Request, id string) (float64, error) {
		return e.CompletionRate(r.Context(), id)
	})
}

// GET /quizzes/{quizID}/analytics/pass-rate
func PassRateHandler(e *analytics.Engine) http.HandlerFunc {
	return quizMetricHandler("pass_rate", func(r *http.Request, id string) (float64, error) {
		return e.PassRate(r.Context(), id)
	})
}

// GET /quizzes/{quizID}/analytics/time-to-complete
func TimeToCompleteHandler(e *analytics.Engine) http.HandlerFunc {
	return quizMetricHandler("average_minutes", func(r *http.Request, id string) (float64, error) {
		return e.AverageTimeToComplete(r.Context(), id)
	})
}

// GET /quizzes/{quizID}/analytics/score-distribution
func ScoreDistributionHandler(e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		dist, err := e.ScoreDistribution(r.Context(), quizID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"quiz_id": quizID, "score_distribution": dist})
	}
}

// GET /questions/{questionID}/difficulty
func QuestionDifficultyHandler(e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID := chi.URLParam(r, "questionID")
		v, err := e.QuestionDifficulty(r.Context(), questionID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"question_id": questionID, "difficulty": v})
	}
}
