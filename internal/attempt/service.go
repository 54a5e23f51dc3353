package attempt

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/quizcraft/quizcraft-core/internal/audit"
	"github.com/quizcraft/quizcraft-core/internal/catalog"
	"github.com/quizcraft/quizcraft-core/internal/errs"
	"github.com/quizcraft/quizcraft-core/internal/grading"
	"github.com/quizcraft/quizcraft-core/internal/roster"
)

// Clock supplies "now" so availability-window checks and durations stay
// deterministic in tests.
type Clock func() time.Time

// Service orchestrates the attempt lifecycle: start, answer, finalize,
// manual grade. Quiz structure is read-only input from the catalog;
// attempt and answer state is owned here.
type Service struct {
	catalog catalog.Store
	roster  roster.Directory
	store   Store
	grader  grading.Grader
	clock   Clock
	events  audit.Log // optional
}

func NewService(cat catalog.Store, dir roster.Directory, store Store, grader grading.Grader, clock Clock, events audit.Log) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{catalog: cat, roster: dir, store: store, grader: grader, clock: clock, events: events}
}

func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, key, data); err != nil {
		log.Printf("audit append %s %s: %v", typ, key, err)
	}
}

// StartAttempt creates an attempt, or resumes the existing in_progress
// one for the same (quiz, student). The returned view carries the
// student-safe quiz structure, shuffled per request when the quiz asks
// for randomized order, with prior answers merged in.
func (s *Service) StartAttempt(ctx context.Context, quizID, studentID string) (View, error) {
	ok, err := s.roster.Exists(ctx, studentID)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, errs.NotFoundf("student %s", studentID)
	}
	z, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return View{}, err
	}
	now := s.clock()
	if !z.Published {
		return View{}, errs.InvalidStatef("quiz %s is not published", quizID)
	}
	if !z.AvailableAt(now.Unix()) {
		return View{}, errs.InvalidStatef("quiz %s is outside its availability window", quizID)
	}

	if existing, ok, err := s.store.FindInProgress(ctx, quizID, studentID); err != nil {
		return View{}, err
	} else if ok {
		return s.view(ctx, existing, z)
	}

	a := Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		StudentID: studentID,
		Status:    StatusInProgress,
		StartedAt: now.Unix(),
	}
	a, created, err := s.store.CreateAttempt(ctx, a)
	if err != nil {
		return View{}, err
	}
	if created {
		s.record(ctx, audit.EventAttemptStarted, a.ID,
			map[string]string{"quiz_id": quizID, "student_id": studentID})
	}
	return s.view(ctx, a, z)
}

func (s *Service) view(ctx context.Context, a Attempt, z catalog.Quiz) (View, error) {
	safe := z.StudentView()
	if safe.RandomizeQuestions {
		// The shuffle order is not persisted: re-fetching may reshuffle.
		r := rand.New(rand.NewSource(s.clock().UnixNano()))
		r.Shuffle(len(safe.Questions), func(i, j int) {
			safe.Questions[i], safe.Questions[j] = safe.Questions[j], safe.Questions[i]
		})
	}
	answers, err := s.store.ListAnswers(ctx, a.ID)
	if err != nil {
		return View{}, err
	}
	byQuestion := make(map[string]Answer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}
	return View{Attempt: a, Quiz: safe, Answers: byQuestion}, nil
}

// SubmitAnswer records (or replaces) the answer for one question of an
// in_progress attempt, auto-grading objective types on the way in.
func (s *Service) SubmitAnswer(ctx context.Context, attemptID, questionID string, sub grading.Submission) (Answer, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Answer{}, err
	}
	if a.Status != StatusInProgress {
		return Answer{}, errs.InvalidStatef("attempt %s is %s", a.ID, a.Status)
	}
	q, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return Answer{}, err
	}
	z, err := s.catalog.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Answer{}, err
	}
	if _, ok := z.Question(questionID); !ok {
		return Answer{}, errs.InvalidArgumentf("question %s does not belong to quiz %s", questionID, z.ID)
	}
	for _, optID := range sub.SelectedOptionIDs {
		if _, ok := q.Option(optID); !ok {
			return Answer{}, errs.InvalidArgumentf("option %s does not belong to question %s", optID, questionID)
		}
	}

	res, err := s.grader.Grade(ctx, q, sub)
	if err != nil {
		return Answer{}, err
	}
	ans := Answer{
		ID:               uuid.NewString(),
		AttemptID:        attemptID,
		QuestionID:       questionID,
		Score:            res.Points,
		Correct:          res.Correct,
		NeedsManualGrade: res.NeedsManual,
	}
	if q.Type.Objective() {
		ans.SelectedOptionIDs = sub.SelectedOptionIDs
	} else {
		ans.Text = sub.Text
	}
	out, err := s.store.UpsertAnswer(ctx, ans)
	if err != nil {
		return Answer{}, err
	}
	s.record(ctx, audit.EventAnswerSubmitted, out.ID,
		map[string]string{"attempt_id": attemptID, "question_id": questionID})
	return out, nil
}

// FinalizeAttempt irreversibly completes the attempt, scoring it from
// the answers on record. Pending manual-grade answers count as zero
// until an instructor grades them.
func (s *Service) FinalizeAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	z, err := s.catalog.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, err
	}
	out, err := s.store.FinalizeAttempt(ctx, attemptID,
		func(answers []Answer) Aggregate { return RecomputeAggregate(answers, z) },
		s.clock().Unix())
	if err != nil {
		return Attempt{}, err
	}
	s.record(ctx, audit.EventAttemptCompleted, out.ID, map[string]any{
		"quiz_id": out.QuizID, "score": out.Score, "percent": out.PercentScore, "passed": out.Passed,
	})
	return out, nil
}

// ManuallyGradeAnswer sets an instructor score and feedback on an
// essay/short-answer response and recomputes the owning attempt's
// aggregate, completed or not. Correctness uses a 50%-of-points
// threshold.
func (s *Service) ManuallyGradeAnswer(ctx context.Context, answerID string, score float64, feedback, gradedBy string) (Answer, error) {
	ans, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return Answer{}, err
	}
	a, err := s.store.GetAttempt(ctx, ans.AttemptID)
	if err != nil {
		return Answer{}, err
	}
	z, err := s.catalog.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Answer{}, err
	}
	q, ok := z.Question(ans.QuestionID)
	if !ok {
		return Answer{}, errs.NotFoundf("question %s", ans.QuestionID)
	}

	now := s.clock().Unix()
	apply := func(cur Answer) (Answer, error) {
		if !cur.NeedsManualGrade {
			return Answer{}, errs.InvalidStatef("answer %s does not require manual grading", cur.ID)
		}
		if score < 0 || score > float64(q.Points) {
			return Answer{}, errs.InvalidArgumentf("score %.2f outside [0, %d]", score, q.Points)
		}
		cur.Score = score
		cur.Correct = score >= float64(q.Points)*0.5
		cur.Feedback = feedback
		cur.GradedBy = gradedBy
		cur.GradedAt = &now
		return cur, nil
	}
	out, _, err := s.store.ApplyManualGrade(ctx, answerID, apply,
		func(answers []Answer) Aggregate { return RecomputeAggregate(answers, z) })
	if err != nil {
		return Answer{}, err
	}
	s.record(ctx, audit.EventAnswerGraded, out.ID,
		map[string]any{"attempt_id": out.AttemptID, "score": out.Score, "graded_by": gradedBy})
	return out, nil
}

// GetAttempt returns the attempt record alone.
func (s *Service) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return s.store.GetAttempt(ctx, id)
}

// GetDetailedAttempt returns the attempt with all of its answers.
func (s *Service) GetDetailedAttempt(ctx context.Context, id string) (Detail, error) {
	a, err := s.store.GetAttempt(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	answers, err := s.store.ListAnswers(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Attempt: a, Answers: answers}, nil
}

// ListAttempts lists attempts filtered by quiz and/or student. Unknown
// quiz or student filters are NotFound rather than an empty list, so
// callers can tell "no attempts yet" from "no such quiz".
func (s *Service) ListAttempts(ctx context.Context, opts ListOpts) ([]Attempt, error) {
	if opts.QuizID != "" {
		if _, err := s.catalog.GetQuiz(ctx, opts.QuizID); err != nil {
			return nil, err
		}
	}
	if opts.StudentID != "" {
		ok, err := s.roster.Exists(ctx, opts.StudentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.NotFoundf("student %s", opts.StudentID)
		}
	}
	return s.store.ListAttempts(ctx, opts)
}
