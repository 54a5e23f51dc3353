package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quizcraft/quizcraft-core/internal/analytics"
	api "github.com/quizcraft/quizcraft-core/internal/api/http"
	"github.com/quizcraft/quizcraft-core/internal/attempt"
	"github.com/quizcraft/quizcraft-core/internal/audit"
	authmw "github.com/quizcraft/quizcraft-core/internal/auth/middleware"
	"github.com/quizcraft/quizcraft-core/internal/catalog"
	"github.com/quizcraft/quizcraft-core/internal/config"
	"github.com/quizcraft/quizcraft-core/internal/db"
	"github.com/quizcraft/quizcraft-core/internal/grading"
	"github.com/quizcraft/quizcraft-core/internal/rbac"
	"github.com/quizcraft/quizcraft-core/internal/roster"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	quizzes := catalog.NewSQLStore(dbh)
	attempts := attempt.NewSQLStore(dbh, cfg.DBDriver)
	users := roster.NewSQLDirectory(dbh)
	events := audit.NewEventRepo(dbh)

	grader := grading.NewDefaultGrader(grading.WithPartialCredit(cfg.PartialCreditMultiAnswer))
	svc := attempt.NewService(quizzes, users, attempts, grader, time.Now, events)
	stats := analytics.NewEngine(quizzes, attempts)

	// --- Auth (local JWT for offline/dev) ---
	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(authSvc, users))
	}

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		// Teacher-only: publish quizzes
		pr.With(rbac.Require("quiz:ingest")).
			Post("/quizzes", api.IngestQuizHandler(quizzes))

		// Student/Teacher: fetch quiz (answer keys stripped for students)
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(quizzes))

		// Student flow
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.CreateAttemptHandler(svc))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/answers", api.SubmitAnswerHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/finalize", api.FinalizeAttemptHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}/answers", api.GetAttemptDetailHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(svc))

		// Teacher: manual grading of essay and short-answer responses
		pr.With(rbac.Require("attempt:grade")).
			Post("/answers/{answerID}/grade", api.ManualGradeHandler(svc))

		// Teacher: analytics
		pr.With(rbac.Require("analytics:view")).
			Get("/quizzes/{quizID}/analytics", api.QuizAnalyticsHandler(stats))
		pr.With(rbac.Require("analytics:view")).
			Get("/quizzes/{quizID}/analytics/difficulty", api.QuizDifficultyHandler(stats))
		pr.With(rbac.Require("analytics:view")).
			Get("/quizzes/{quizID}/analytics/completion-rate", api.CompletionRateHandler(stats))
		pr.With(rbac.Require("analytics:view")).
			Get("/quizzes/{quizID}/analytics/pass-rate", api.PassRateHandler(stats))
		pr.With(rbac.Require("analytics:view")).
			Get("/quizzes/{quizID}/analytics/time-to-complete", api.TimeToCompleteHandler(stats))
		pr.With(rbac.Require("analytics:view")).
			Get("/quizzes/{quizID}/analytics/score-distribution", api.ScoreDistributionHandler(stats))
		pr.With(rbac.Require("analytics:view")).
			Get("/questions/{questionID}/difficulty", api.QuestionDifficultyHandler(stats))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
