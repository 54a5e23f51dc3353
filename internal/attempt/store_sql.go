package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quizcraft/quizcraft-core/internal/errs"
)

// SQLStore keeps attempts and answers in relational tables. Lifecycle
// invariants are enforced inside transactions: the attempt row is
// locked (postgres) or serialized by the database (sqlite) for every
// read-modify-write, and a partial unique index backs the single
// in_progress attempt per (quiz, student) rule.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// lockSuffix appends a row lock where the driver supports one. sqlite
// serializes writers on its own.
func (s *SQLStore) lockSuffix() string {
	if s.driver == "postgres" {
		return " FOR UPDATE"
	}
	return ""
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const attemptCols = `id,quiz_id,student_id,status,started_at,submitted_at,score,percent_score,passed`

func scanAttempt(row *sql.Row) (Attempt, error) {
	var a Attempt
	var submitted sql.NullInt64
	err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Status, &a.StartedAt,
		&submitted, &a.Score, &a.PercentScore, &a.Passed)
	if err != nil {
		return Attempt{}, err
	}
	if submitted.Valid {
		a.SubmittedAt = &submitted.Int64
	}
	return a, nil
}

func (s *SQLStore) getAttempt(ctx context.Context, q querier, id, lock string) (Attempt, error) {
	a, err := scanAttempt(q.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts WHERE id=$1`+lock, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, errs.NotFoundf("attempt %s", id)
		}
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) (Attempt, bool, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,quiz_id,student_id,status,started_at,score,percent_score,passed)
		VALUES ($1,$2,$3,$4,$5,0,0,$6)`,
		a.ID, a.QuizID, a.StudentID, a.Status, a.StartedAt, false)
	if err != nil {
		// A concurrent start may have won the partial unique index race;
		// resolve to that attempt instead of surfacing the violation.
		if existing, ok, ferr := s.FindInProgress(ctx, a.QuizID, a.StudentID); ferr == nil && ok {
			return existing, false, nil
		}
		return Attempt{}, false, fmt.Errorf("create attempt: %w", err)
	}
	return a, true, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return s.getAttempt(ctx, s.db, id, "")
}

func (s *SQLStore) FindInProgress(ctx context.Context, quizID, studentID string) (Attempt, bool, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts WHERE quiz_id=$1 AND student_id=$2 AND status=$3`,
		quizID, studentID, StatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, false, nil
		}
		return Attempt{}, false, err
	}
	return a, true, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts ListOpts) ([]Attempt, error) {
	query := `SELECT ` + attemptCols + ` FROM attempts WHERE 1=1`
	var args []any
	n := 0
	add := func(clause string, v any) {
		n++
		query += fmt.Sprintf(" AND %s=$%d", clause, n)
		args = append(args, v)
	}
	if opts.QuizID != "" {
		add("quiz_id", opts.QuizID)
	}
	if opts.StudentID != "" {
		add("student_id", opts.StudentID)
	}
	if opts.Status != "" {
		add("status", opts.Status)
	}
	query += ` ORDER BY started_at DESC, id`
	if opts.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, opts.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		var a Attempt
		var submitted sql.NullInt64
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Status, &a.StartedAt,
			&submitted, &a.Score, &a.PercentScore, &a.Passed); err != nil {
			return nil, err
		}
		if submitted.Valid {
			a.SubmittedAt = &submitted.Int64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const answerCols = `id,attempt_id,question_id,selected_json,text,score,correct,needs_manual,feedback,graded_by,graded_at`

func scanAnswerRow(scan func(dest ...any) error) (Answer, error) {
	var ans Answer
	var selected string
	var gradedAt sql.NullInt64
	err := scan(&ans.ID, &ans.AttemptID, &ans.QuestionID, &selected, &ans.Text,
		&ans.Score, &ans.Correct, &ans.NeedsManualGrade, &ans.Feedback, &ans.GradedBy, &gradedAt)
	if err != nil {
		return Answer{}, err
	}
	if selected != "" {
		if err := json.Unmarshal([]byte(selected), &ans.SelectedOptionIDs); err != nil {
			return Answer{}, err
		}
	}
	if gradedAt.Valid {
		ans.GradedAt = &gradedAt.Int64
	}
	return ans, nil
}

func (s *SQLStore) getAnswer(ctx context.Context, q querier, id, lock string) (Answer, error) {
	ans, err := scanAnswerRow(q.QueryRowContext(ctx,
		`SELECT `+answerCols+` FROM answers WHERE id=$1`+lock, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Answer{}, errs.NotFoundf("answer %s", id)
		}
		return Answer{}, err
	}
	return ans, nil
}

func (s *SQLStore) GetAnswer(ctx context.Context, id string) (Answer, error) {
	return s.getAnswer(ctx, s.db, id, "")
}

func (s *SQLStore) listAnswers(ctx context.Context, q querier, where string, arg any) ([]Answer, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+answerCols+` FROM answers WHERE `+where+` ORDER BY question_id, id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Answer
	for rows.Next() {
		ans, err := scanAnswerRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, ans)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAnswers(ctx context.Context, attemptID string) ([]Answer, error) {
	return s.listAnswers(ctx, s.db, `attempt_id=$1`, attemptID)
}

func (s *SQLStore) ListAnswersByQuestion(ctx context.Context, questionID string) ([]Answer, error) {
	return s.listAnswers(ctx, s.db, `question_id=$1`, questionID)
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, ans Answer) (Answer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Answer{}, err
	}
	defer tx.Rollback()

	a, err := s.getAttempt(ctx, tx, ans.AttemptID, s.lockSuffix())
	if err != nil {
		return Answer{}, err
	}
	if a.Status != StatusInProgress {
		return Answer{}, errs.InvalidStatef("attempt %s is %s", a.ID, a.Status)
	}

	selected, err := json.Marshal(ans.SelectedOptionIDs)
	if err != nil {
		return Answer{}, err
	}
	if ans.SelectedOptionIDs == nil {
		selected = []byte("")
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO answers
		(id,attempt_id,question_id,selected_json,text,score,correct,needs_manual,feedback,graded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'','')
		ON CONFLICT (attempt_id, question_id) DO UPDATE SET
			selected_json=EXCLUDED.selected_json,
			text=EXCLUDED.text,
			score=EXCLUDED.score,
			correct=EXCLUDED.correct,
			needs_manual=EXCLUDED.needs_manual,
			feedback='',
			graded_by='',
			graded_at=NULL`,
		ans.ID, ans.AttemptID, ans.QuestionID, string(selected), ans.Text,
		ans.Score, ans.Correct, ans.NeedsManualGrade)
	if err != nil {
		return Answer{}, err
	}

	// Re-read by pair: on replacement the original row id survives.
	out, err := scanAnswerRow(tx.QueryRowContext(ctx,
		`SELECT `+answerCols+` FROM answers WHERE attempt_id=$1 AND question_id=$2`,
		ans.AttemptID, ans.QuestionID).Scan)
	if err != nil {
		return Answer{}, err
	}
	if err := tx.Commit(); err != nil {
		return Answer{}, err
	}
	return out, nil
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, attemptID string, agg AggregateFn, now int64) (Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, err
	}
	defer tx.Rollback()

	a, err := s.getAttempt(ctx, tx, attemptID, s.lockSuffix())
	if err != nil {
		return Attempt{}, err
	}
	if a.Status != StatusInProgress {
		return Attempt{}, errs.InvalidStatef("attempt %s already %s", a.ID, a.Status)
	}
	answers, err := s.listAnswers(ctx, tx, `attempt_id=$1`, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	res := agg(answers)
	_, err = tx.ExecContext(ctx, `UPDATE attempts
		SET status=$1, submitted_at=$2, score=$3, percent_score=$4, passed=$5
		WHERE id=$6`,
		StatusCompleted, now, res.Score, res.Percent, res.Passed, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if err := tx.Commit(); err != nil {
		return Attempt{}, err
	}
	a.Status = StatusCompleted
	a.SubmittedAt = &now
	a.Score = res.Score
	a.PercentScore = res.Percent
	a.Passed = res.Passed
	return a, nil
}

func (s *SQLStore) ApplyManualGrade(ctx context.Context, answerID string, apply func(Answer) (Answer, error), agg AggregateFn) (Answer, Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Answer{}, Attempt{}, err
	}
	defer tx.Rollback()

	ans, err := s.getAnswer(ctx, tx, answerID, "")
	if err != nil {
		return Answer{}, Attempt{}, err
	}
	// Lock the owning attempt before touching the answer so concurrent
	// manual grades on the same attempt serialize their recomputations.
	a, err := s.getAttempt(ctx, tx, ans.AttemptID, s.lockSuffix())
	if err != nil {
		return Answer{}, Attempt{}, err
	}
	ans, err = s.getAnswer(ctx, tx, answerID, "")
	if err != nil {
		return Answer{}, Attempt{}, err
	}

	updated, err := apply(ans)
	if err != nil {
		return Answer{}, Attempt{}, err
	}
	updated.ID = ans.ID
	updated.AttemptID = ans.AttemptID
	updated.QuestionID = ans.QuestionID

	var gradedAt any
	if updated.GradedAt != nil {
		gradedAt = *updated.GradedAt
	}
	_, err = tx.ExecContext(ctx, `UPDATE answers
		SET score=$1, correct=$2, feedback=$3, graded_by=$4, graded_at=$5
		WHERE id=$6`,
		updated.Score, updated.Correct, updated.Feedback, updated.GradedBy, gradedAt, updated.ID)
	if err != nil {
		return Answer{}, Attempt{}, err
	}

	answers, err := s.listAnswers(ctx, tx, `attempt_id=$1`, updated.AttemptID)
	if err != nil {
		return Answer{}, Attempt{}, err
	}
	res := agg(answers)
	_, err = tx.ExecContext(ctx,
		`UPDATE attempts SET score=$1, percent_score=$2, passed=$3 WHERE id=$4`,
		res.Score, res.Percent, res.Passed, a.ID)
	if err != nil {
		return Answer{}, Attempt{}, err
	}
	if err := tx.Commit(); err != nil {
		return Answer{}, Attempt{}, err
	}
	a.Score = res.Score
	a.PercentScore = res.Percent
	a.Passed = res.Passed
	return updated, a, nil
}
