package grading

import (
	"context"

	"github.com/quizcraft/quizcraft-core/internal/catalog"
	"github.com/quizcraft/quizcraft-core/internal/errs"
)

// Submission is one student response to one question. Objective types
// use SelectedOptionIDs; essay/short_answer use Text.
type Submission struct {
	SelectedOptionIDs []string
	Text              string
}

// Result is the outcome of grading a single submission.
type Result struct {
	Points      float64 // points awarded automatically
	MaxPoints   float64 // the question's point value
	Correct     bool
	NeedsManual bool // true if instructor review is required
}

// Strategy grades submissions for one question type.
type Strategy interface {
	Grade(ctx context.Context, q catalog.Question, sub Submission) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q catalog.Question, sub Submission) (Result, error)
}

type defaultGrader struct {
	strategies map[catalog.QuestionType]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q catalog.Question, sub Submission) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{}, errs.InvalidArgumentf("no grading strategy for question type %q", q.Type)
	}
	return s.Grade(ctx, q, sub)
}

type config struct {
	PartialMultiAnswer bool
}

type Option func(*config)

// WithPartialCredit enables proportional credit for multiple_answer
// submissions that select a strict subset of the correct options.
// Default is all-or-nothing.
func WithPartialCredit(b bool) Option { return func(c *config) { c.PartialMultiAnswer = b } }

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[catalog.QuestionType]Strategy{
			catalog.MultipleChoice: singleChoiceStrategy{},
			catalog.TrueFalse:      singleChoiceStrategy{},
			catalog.MultipleAnswer: multiAnswerStrategy{allowPartial: cfg.PartialMultiAnswer},
			catalog.Essay:          manualStrategy{},
			catalog.ShortAnswer:    manualStrategy{},
		},
	}
}

// --- Strategies ---

// singleChoiceStrategy handles multiple_choice and true_false: exactly
// one selected option, which must be the option flagged correct.
type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(_ context.Context, q catalog.Question, sub Submission) (Result, error) {
	res := Result{MaxPoints: float64(q.Points)}
	if len(sub.SelectedOptionIDs) != 1 {
		return res, nil
	}
	for _, correct := range q.CorrectOptionIDs() {
		if sub.SelectedOptionIDs[0] == correct {
			res.Points = float64(q.Points)
			res.Correct = true
			return res, nil
		}
	}
	return res, nil
}

// multiAnswerStrategy requires the selected set to exactly match the
// correct set. The partial-credit path awards proportional points when
// the selection has no false positives.
type multiAnswerStrategy struct{ allowPartial bool }

func (s multiAnswerStrategy) Grade(_ context.Context, q catalog.Question, sub Submission) (Result, error) {
	res := Result{MaxPoints: float64(q.Points)}
	correct := toSet(q.CorrectOptionIDs())
	picked := toSet(sub.SelectedOptionIDs)

	if setEqual(correct, picked) {
		res.Points = float64(q.Points)
		res.Correct = true
		return res, nil
	}
	if !s.allowPartial {
		return res, nil
	}
	for id := range picked {
		if _, ok := correct[id]; !ok {
			return res, nil // false positive, no partial credit
		}
	}
	if len(correct) > 0 && len(picked) > 0 {
		hits := 0
		for id := range picked {
			if _, ok := correct[id]; ok {
				hits++
			}
		}
		res.Points = float64(q.Points) * float64(hits) / float64(len(correct))
	}
	return res, nil
}

// manualStrategy covers essay and short_answer: never auto-graded,
// zero points until an instructor grades the answer.
type manualStrategy struct{}

func (manualStrategy) Grade(_ context.Context, q catalog.Question, _ Submission) (Result, error) {
	return Result{MaxPoints: float64(q.Points), NeedsManual: true}, nil
}

// helpers

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, s := range ids {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
