package attempt_test

import (
	"context"
	"strings"
	"testing"

	"github.com/quizcraft/quizcraft-core/internal/attempt"
	"github.com/quizcraft/quizcraft-core/internal/catalog"
	"github.com/quizcraft/quizcraft-core/internal/db"
	"github.com/quizcraft/quizcraft-core/internal/errs"
)

// openSQLStores opens an in-process sqlite DB with the full schema and
// seeds one published quiz: q1 multiple_choice 5pts, q2 essay 10pts,
// passing at 80%.
func openSQLStores(t *testing.T) (*attempt.SQLStore, *catalog.SQLStore) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := "file:" + name + "?mode=memory&cache=shared"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })

	cat := catalog.NewSQLStore(dbh)
	z := catalog.Quiz{
		ID:           "quiz-1",
		Title:        "Persistence 101",
		Published:    true,
		PassingScore: 80,
		Questions: []catalog.Question{
			{
				ID: "q1", Type: catalog.MultipleChoice, Prompt: "2+2?", Points: 5, Position: 1,
				Options: []catalog.Option{
					{ID: "a", Text: "4", Correct: true, Position: 1},
					{ID: "b", Text: "5", Position: 2},
				},
			},
			{ID: "q2", Type: catalog.Essay, Prompt: "Explain.", Points: 10, Position: 2},
		},
	}
	if err := cat.PutQuiz(context.Background(), z); err != nil {
		t.Fatalf("put quiz: %v", err)
	}
	return attempt.NewSQLStore(dbh, "sqlite"), cat
}

func seedAttempt(t *testing.T, st *attempt.SQLStore, id string) attempt.Attempt {
	t.Helper()
	a, created, err := st.CreateAttempt(context.Background(), attempt.Attempt{
		ID: id, QuizID: "quiz-1", StudentID: "stu-1",
		Status: attempt.StatusInProgress, StartedAt: 1700000000,
	})
	if err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	if !created {
		t.Fatalf("expected a fresh attempt, resolved to %s", a.ID)
	}
	return a
}

func quizAgg(t *testing.T, cat *catalog.SQLStore) attempt.AggregateFn {
	t.Helper()
	z, err := cat.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	return func(answers []attempt.Answer) attempt.Aggregate {
		return attempt.RecomputeAggregate(answers, z)
	}
}

func TestSQLStore_DuplicateStartResolvesToLiveAttempt(t *testing.T) {
	st, _ := openSQLStores(t)
	ctx := context.Background()

	first := seedAttempt(t, st, "att-1")

	// A second insert for the same (quiz, student) hits the live-attempt
	// unique index and resolves to the existing row.
	got, created, err := st.CreateAttempt(ctx, attempt.Attempt{
		ID: "att-2", QuizID: "quiz-1", StudentID: "stu-1",
		Status: attempt.StatusInProgress, StartedAt: 1700000100,
	})
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if created || got.ID != first.ID {
		t.Fatalf("want resolution to %s, got created=%v id=%s", first.ID, created, got.ID)
	}
	if _, err := st.GetAttempt(ctx, "att-2"); !errs.IsNotFound(err) {
		t.Fatalf("losing attempt must not exist, got %v", err)
	}

	// A different student is not blocked.
	_, created, err = st.CreateAttempt(ctx, attempt.Attempt{
		ID: "att-3", QuizID: "quiz-1", StudentID: "stu-2",
		Status: attempt.StatusInProgress, StartedAt: 1700000100,
	})
	if err != nil || !created {
		t.Fatalf("other student must start fresh: created=%v err=%v", created, err)
	}
}

func TestSQLStore_UpsertReplacesInPlace(t *testing.T) {
	st, _ := openSQLStores(t)
	ctx := context.Background()
	a := seedAttempt(t, st, "att-1")

	wrong, err := st.UpsertAnswer(ctx, attempt.Answer{
		ID: "ans-1", AttemptID: a.ID, QuestionID: "q1",
		SelectedOptionIDs: []string{"b"},
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	right, err := st.UpsertAnswer(ctx, attempt.Answer{
		ID: "ans-2", AttemptID: a.ID, QuestionID: "q1",
		SelectedOptionIDs: []string{"a"}, Score: 5, Correct: true,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if right.ID != wrong.ID {
		t.Fatalf("replacement must keep the row id %s, got %s", wrong.ID, right.ID)
	}
	if !right.Correct || right.Score != 5 {
		t.Fatalf("second submission must win, got %+v", right)
	}
	if len(right.SelectedOptionIDs) != 1 || right.SelectedOptionIDs[0] != "a" {
		t.Fatalf("selection not replaced: %v", right.SelectedOptionIDs)
	}

	answers, err := st.ListAnswers(ctx, a.ID)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("want a single row per (attempt, question), got %d", len(answers))
	}

	byQ, err := st.ListAnswersByQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("list by question: %v", err)
	}
	if len(byQ) != 1 || byQ[0].ID != wrong.ID {
		t.Fatalf("question index lookup wrong: %+v", byQ)
	}
}

func TestSQLStore_FinalizeIsTerminal(t *testing.T) {
	st, cat := openSQLStores(t)
	ctx := context.Background()
	a := seedAttempt(t, st, "att-1")
	agg := quizAgg(t, cat)

	if _, err := st.UpsertAnswer(ctx, attempt.Answer{
		ID: "ans-1", AttemptID: a.ID, QuestionID: "q1",
		SelectedOptionIDs: []string{"a"}, Score: 5, Correct: true,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := st.UpsertAnswer(ctx, attempt.Answer{
		ID: "ans-2", AttemptID: a.ID, QuestionID: "q2",
		Text: "a free text response", NeedsManualGrade: true,
	}); err != nil {
		t.Fatalf("upsert essay: %v", err)
	}

	done, err := st.FinalizeAttempt(ctx, a.ID, agg, 1700000500)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if done.Status != attempt.StatusCompleted || done.SubmittedAt == nil || *done.SubmittedAt != 1700000500 {
		t.Fatalf("not completed: %+v", done)
	}
	// 5 of 15 points, essay still ungraded.
	if done.Score != 5 || done.PercentScore < 33.3 || done.PercentScore > 33.4 || done.Passed {
		t.Fatalf("wrong aggregate: %+v", done)
	}

	if _, err := st.FinalizeAttempt(ctx, a.ID, agg, 1700000600); !errs.IsInvalidState(err) {
		t.Fatalf("double finalize must be invalid state, got %v", err)
	}
	if _, err := st.UpsertAnswer(ctx, attempt.Answer{
		ID: "ans-3", AttemptID: a.ID, QuestionID: "q1",
		SelectedOptionIDs: []string{"b"},
	}); !errs.IsInvalidState(err) {
		t.Fatalf("submit after finalize must be invalid state, got %v", err)
	}

	// Completion frees the live-attempt slot.
	_, created, err := st.CreateAttempt(ctx, attempt.Attempt{
		ID: "att-2", QuizID: "quiz-1", StudentID: "stu-1",
		Status: attempt.StatusInProgress, StartedAt: 1700000700,
	})
	if err != nil || !created {
		t.Fatalf("restart after completion: created=%v err=%v", created, err)
	}
}

func TestSQLStore_ManualGradeRecomputesAggregate(t *testing.T) {
	st, cat := openSQLStores(t)
	ctx := context.Background()
	a := seedAttempt(t, st, "att-1")
	agg := quizAgg(t, cat)

	if _, err := st.UpsertAnswer(ctx, attempt.Answer{
		ID: "ans-1", AttemptID: a.ID, QuestionID: "q1",
		SelectedOptionIDs: []string{"a"}, Score: 5, Correct: true,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	essay, err := st.UpsertAnswer(ctx, attempt.Answer{
		ID: "ans-2", AttemptID: a.ID, QuestionID: "q2",
		Text: "a free text response", NeedsManualGrade: true,
	})
	if err != nil {
		t.Fatalf("upsert essay: %v", err)
	}
	if _, err := st.FinalizeAttempt(ctx, a.ID, agg, 1700000500); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	gradedAt := int64(1700000900)
	ans, upd, err := st.ApplyManualGrade(ctx, essay.ID, func(cur attempt.Answer) (attempt.Answer, error) {
		cur.Score = 10
		cur.Correct = true
		cur.Feedback = "well argued"
		cur.GradedBy = "teach-1"
		cur.GradedAt = &gradedAt
		return cur, nil
	}, agg)
	if err != nil {
		t.Fatalf("manual grade: %v", err)
	}
	if ans.Score != 10 || !ans.Correct || ans.GradedBy != "teach-1" {
		t.Fatalf("answer not updated: %+v", ans)
	}
	// 15 of 15 points, now above the 80% threshold.
	if upd.Score != 15 || upd.PercentScore != 100 || !upd.Passed {
		t.Fatalf("aggregate not recomputed: %+v", upd)
	}

	stored, err := st.GetAttempt(ctx, a.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if stored.Score != 15 || !stored.Passed || stored.Status != attempt.StatusCompleted {
		t.Fatalf("recompute not persisted: %+v", stored)
	}

	if _, _, err := st.ApplyManualGrade(ctx, "ghost", func(cur attempt.Answer) (attempt.Answer, error) {
		return cur, nil
	}, agg); !errs.IsNotFound(err) {
		t.Fatalf("unknown answer must be not-found, got %v", err)
	}
}

func TestSQLStore_ListAttemptsFilters(t *testing.T) {
	st, _ := openSQLStores(t)
	ctx := context.Background()
	a := seedAttempt(t, st, "att-1")
	if _, _, err := st.CreateAttempt(ctx, attempt.Attempt{
		ID: "att-2", QuizID: "quiz-1", StudentID: "stu-2",
		Status: attempt.StatusInProgress, StartedAt: 1700000100,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := st.ListAttempts(ctx, attempt.ListOpts{QuizID: "quiz-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 attempts, got %d", len(all))
	}

	mine, err := st.ListAttempts(ctx, attempt.ListOpts{StudentID: "stu-1", Status: attempt.StatusInProgress})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("filters wrong: %+v", mine)
	}

	limited, err := st.ListAttempts(ctx, attempt.ListOpts{QuizID: "quiz-1", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("want 1 paged attempt, got %d", len(limited))
	}
}
