package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/quizcraft/quizcraft-core/internal/catalog"
	"github.com/quizcraft/quizcraft-core/internal/db"
	"github.com/quizcraft/quizcraft-core/internal/errs"
)

func openSQLStore(t *testing.T) *catalog.SQLStore {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := "file:" + name + "?mode=memory&cache=shared"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return catalog.NewSQLStore(dbh)
}

func TestSQLStore_PutGetRoundTrip(t *testing.T) {
	st := openSQLStore(t)
	ctx := context.Background()

	if err := st.PutQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("put: %v", err)
	}
	z, err := st.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if z.Title != "Signals and Systems" || !z.Published || z.PassingScore != 70 {
		t.Fatalf("quiz fields lost: %+v", z)
	}
	if len(z.Questions) != 2 || len(z.Questions[0].Options) != 2 {
		t.Fatalf("question structure lost: %+v", z.Questions)
	}
	if got := z.Questions[0].CorrectOptionIDs(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("answer key lost: %v", got)
	}

	if _, err := st.GetQuiz(ctx, "ghost"); !errs.IsNotFound(err) {
		t.Fatalf("want not-found, got %v", err)
	}
}

func TestSQLStore_QuestionIndexFollowsReplacement(t *testing.T) {
	st := openSQLStore(t)
	ctx := context.Background()

	if err := st.PutQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("put: %v", err)
	}
	q, err := st.GetQuestion(ctx, "q2")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.Type != catalog.Essay || q.Points != 10 {
		t.Fatalf("wrong question resolved: %+v", q)
	}

	// Replacing the quiz rewrites the index: dropped questions vanish.
	z := sampleQuiz()
	z.Questions = z.Questions[:1]
	if err := st.PutQuiz(ctx, z); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := st.GetQuestion(ctx, "q2"); !errs.IsNotFound(err) {
		t.Fatalf("want not-found for dropped question, got %v", err)
	}
	if _, err := st.GetQuestion(ctx, "q1"); err != nil {
		t.Fatalf("kept question must resolve: %v", err)
	}
}
