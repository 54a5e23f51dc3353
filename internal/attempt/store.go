package attempt

import "context"

// ListOpts filters attempt listings.
type ListOpts struct {
	QuizID    string
	StudentID string
	Status    Status // optional
	Limit     int    // 0 = no limit
	Offset    int
}

// Store owns attempt and answer state. Every mutating method is an
// atomic read-validate-write: the lifecycle checks it performs happen
// in the same transaction (or critical section) as the write, so a
// submit racing a finalize resolves to exactly one of "recorded then
// finalized" or "rejected as late".
type Store interface {
	// CreateAttempt inserts a new attempt unless an in_progress attempt
	// already exists for the same (quiz, student); then that attempt is
	// returned and created is false.
	CreateAttempt(ctx context.Context, a Attempt) (out Attempt, created bool, err error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	FindInProgress(ctx context.Context, quizID, studentID string) (Attempt, bool, error)
	ListAttempts(ctx context.Context, opts ListOpts) ([]Attempt, error)

	GetAnswer(ctx context.Context, id string) (Answer, error)
	ListAnswers(ctx context.Context, attemptID string) ([]Answer, error)
	// ListAnswersByQuestion returns every answer ever recorded for the
	// question, across all attempts and quizzes.
	ListAnswersByQuestion(ctx context.Context, questionID string) ([]Answer, error)

	// UpsertAnswer writes the answer for (attempt, question), replacing
	// any prior one, after verifying the owning attempt is in_progress.
	UpsertAnswer(ctx context.Context, ans Answer) (Answer, error)

	// FinalizeAttempt transitions in_progress -> completed, storing the
	// aggregate computed from the answers as read inside the same unit.
	FinalizeAttempt(ctx context.Context, attemptID string, agg AggregateFn, now int64) (Attempt, error)

	// ApplyManualGrade runs apply against the current answer and, if it
	// succeeds, persists the result and the recomputed aggregate of the
	// owning attempt. This is the one mutation allowed on a completed
	// attempt.
	ApplyManualGrade(ctx context.Context, answerID string, apply func(Answer) (Answer, error), agg AggregateFn) (Answer, Attempt, error)
}
