package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/quizcraft/quizcraft-core/internal/errs"
)

// SQLStore persists quiz definitions with the question/option structure
// as a JSON document per quiz, plus a question->quiz index so answers
// and analytics can resolve a question without knowing its quiz.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutQuiz(ctx context.Context, z Quiz) error {
	qj, err := json.Marshal(z.Questions)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO quizzes
		(id,title,published,passing_score,time_limit_sec,available_from,available_until,randomize_questions,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			title=EXCLUDED.title,
			published=EXCLUDED.published,
			passing_score=EXCLUDED.passing_score,
			time_limit_sec=EXCLUDED.time_limit_sec,
			available_from=EXCLUDED.available_from,
			available_until=EXCLUDED.available_until,
			randomize_questions=EXCLUDED.randomize_questions,
			questions_json=EXCLUDED.questions_json`,
		z.ID, z.Title, z.Published, z.PassingScore, z.TimeLimitSec,
		z.AvailableFrom, z.AvailableUntil, z.RandomizeQuestions, string(qj), time.Now().Unix())
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM question_index WHERE quiz_id=$1`, z.ID); err != nil {
		return err
	}
	for _, q := range z.Questions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO question_index (question_id, quiz_id) VALUES ($1,$2)`, q.ID, z.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,published,passing_score,time_limit_sec,
		available_from,available_until,randomize_questions,questions_json,created_at
		FROM quizzes WHERE id=$1`, id)
	var z Quiz
	var qjson string
	err := row.Scan(&z.ID, &z.Title, &z.Published, &z.PassingScore, &z.TimeLimitSec,
		&z.AvailableFrom, &z.AvailableUntil, &z.RandomizeQuestions, &qjson, &z.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, errs.NotFoundf("quiz %s", id)
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &z.Questions); err != nil {
		return Quiz{}, err
	}
	return z, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	var quizID string
	err := s.db.QueryRowContext(ctx,
		`SELECT quiz_id FROM question_index WHERE question_id=$1`, id).Scan(&quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, errs.NotFoundf("question %s", id)
		}
		return Question{}, err
	}
	z, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return Question{}, err
	}
	q, ok := z.Question(id)
	if !ok {
		return Question{}, errs.NotFoundf("question %s", id)
	}
	return q, nil
}
