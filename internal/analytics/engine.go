// Package analytics derives quiz- and question-level statistics from
// the population of attempts. Everything here is read-only and computed
// on demand over a snapshot: no locking, no incremental state.
package analytics

import (
	"context"
	"fmt"

	"github.com/quizcraft/quizcraft-core/internal/attempt"
	"github.com/quizcraft/quizcraft-core/internal/catalog"
)

// neutralDifficulty is reported when no data exists to judge from.
const neutralDifficulty = 50.0

// distributionBuckets are the fixed percentage-score bands.
var distributionBuckets = [10]string{
	"0-9", "10-19", "20-29", "30-39", "40-49",
	"50-59", "60-69", "70-79", "80-89", "90-100",
}

// Reader is the slice of the attempt store the engine needs.
type Reader interface {
	ListAttempts(ctx context.Context, opts attempt.ListOpts) ([]attempt.Attempt, error)
	ListAnswersByQuestion(ctx context.Context, questionID string) ([]attempt.Answer, error)
}

type Engine struct {
	catalog catalog.Store
	store   Reader
}

func NewEngine(cat catalog.Store, store Reader) *Engine {
	return &Engine{catalog: cat, store: store}
}

type OptionStats struct {
	OptionID         string  `json:"option_id"`
	Text             string  `json:"text"`
	Correct          bool    `json:"correct"`
	SelectionCount   int     `json:"selection_count"`
	SelectionPercent float64 `json:"selection_percent"`
}

type QuestionStats struct {
	QuestionID     string        `json:"question_id"`
	Type           string        `json:"type"`
	TotalAnswers   int           `json:"total_answers"`
	CorrectAnswers int           `json:"correct_answers"`
	CorrectPercent float64       `json:"correct_percent"`
	Difficulty     float64       `json:"difficulty"`
	Options        []OptionStats `json:"options,omitempty"`
}

type Bucket struct {
	Range   string  `json:"range"`
	Percent float64 `json:"percent"`
}

type QuizReport struct {
	QuizID            string          `json:"quiz_id"`
	TotalAttempts     int             `json:"total_attempts"`
	CompletedAttempts int             `json:"completed_attempts"`
	AverageScore      float64         `json:"average_score"` // mean percentage score
	PassedCount       int             `json:"passed_count"`
	FailedCount       int             `json:"failed_count"`
	PassRate          float64         `json:"pass_rate"`
	CompletionRate    float64         `json:"completion_rate"`
	Difficulty        float64         `json:"difficulty"`
	AverageMinutes    float64         `json:"average_minutes_to_complete"`
	ScoreDistribution []Bucket        `json:"score_distribution"`
	Questions         []QuestionStats `json:"questions"`
}

func (e *Engine) quizAttempts(ctx context.Context, quizID string) ([]attempt.Attempt, error) {
	if _, err := e.catalog.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return e.store.ListAttempts(ctx, attempt.ListOpts{QuizID: quizID})
}

func completed(all []attempt.Attempt) []attempt.Attempt {
	var out []attempt.Attempt
	for _, a := range all {
		if a.Status == attempt.StatusCompleted {
			out = append(out, a)
		}
	}
	return out
}

// QuizDifficulty is 100 minus the average percentage score over
// completed attempts; 50 (neutral) with no data. Higher is harder.
func (e *Engine) QuizDifficulty(ctx context.Context, quizID string) (float64, error) {
	all, err := e.quizAttempts(ctx, quizID)
	if err != nil {
		return 0, err
	}
	return quizDifficulty(completed(all)), nil
}

func quizDifficulty(done []attempt.Attempt) float64 {
	if len(done) == 0 {
		return neutralDifficulty
	}
	var sum float64
	for _, a := range done {
		sum += a.PercentScore
	}
	return 100 - sum/float64(len(done))
}

// CompletionRate is completed / total x 100.
func (e *Engine) CompletionRate(ctx context.Context, quizID string) (float64, error) {
	all, err := e.quizAttempts(ctx, quizID)
	if err != nil {
		return 0, err
	}
	return completionRate(all), nil
}

func completionRate(all []attempt.Attempt) float64 {
	if len(all) == 0 {
		return 0
	}
	return float64(len(completed(all))) / float64(len(all)) * 100
}

// PassRate is passed / completed x 100.
func (e *Engine) PassRate(ctx context.Context, quizID string) (float64, error) {
	all, err := e.quizAttempts(ctx, quizID)
	if err != nil {
		return 0, err
	}
	return passRate(completed(all)), nil
}

func passRate(done []attempt.Attempt) float64 {
	if len(done) == 0 {
		return 0
	}
	passed := 0
	for _, a := range done {
		if a.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(done)) * 100
}

// AverageTimeToComplete is the mean started-to-submitted duration in
// minutes over completed attempts carrying both timestamps.
func (e *Engine) AverageTimeToComplete(ctx context.Context, quizID string) (float64, error) {
	all, err := e.quizAttempts(ctx, quizID)
	if err != nil {
		return 0, err
	}
	return averageMinutes(completed(all)), nil
}

func averageMinutes(done []attempt.Attempt) float64 {
	var sum float64
	n := 0
	for _, a := range done {
		if a.SubmittedAt == nil || a.StartedAt == 0 {
			continue
		}
		sum += float64(*a.SubmittedAt-a.StartedAt) / 60
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// QuestionDifficulty is 100 minus the correct-answer percentage across
// every answer ever submitted for the question; 50 with no answers.
func (e *Engine) QuestionDifficulty(ctx context.Context, questionID string) (float64, error) {
	if _, err := e.catalog.GetQuestion(ctx, questionID); err != nil {
		return 0, err
	}
	answers, err := e.store.ListAnswersByQuestion(ctx, questionID)
	if err != nil {
		return 0, err
	}
	if len(answers) == 0 {
		return neutralDifficulty, nil
	}
	correct := 0
	for _, ans := range answers {
		if ans.Correct {
			correct++
		}
	}
	return 100 - float64(correct)/float64(len(answers))*100, nil
}

// ScoreDistribution reports, for each of the ten fixed buckets, the
// percentage of completed attempts whose percentage score lands there.
// All buckets are present even with no data.
func (e *Engine) ScoreDistribution(ctx context.Context, quizID string) ([]Bucket, error) {
	all, err := e.quizAttempts(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return scoreDistribution(completed(all)), nil
}

func scoreDistribution(done []attempt.Attempt) []Bucket {
	counts := [10]int{}
	for _, a := range done {
		idx := int(a.PercentScore / 10)
		if idx > 9 {
			idx = 9
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}
	out := make([]Bucket, 10)
	for i, label := range distributionBuckets {
		b := Bucket{Range: label}
		if len(done) > 0 {
			b.Percent = float64(counts[i]) / float64(len(done)) * 100
		}
		out[i] = b
	}
	return out
}

// QuizAnalytics bundles the whole quiz report: attempt counts, score
// stats, distribution and per-question/per-option breakdowns.
func (e *Engine) QuizAnalytics(ctx context.Context, quizID string) (QuizReport, error) {
	z, err := e.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizReport{}, err
	}
	all, err := e.store.ListAttempts(ctx, attempt.ListOpts{QuizID: quizID})
	if err != nil {
		return QuizReport{}, err
	}
	done := completed(all)

	rep := QuizReport{
		QuizID:            quizID,
		TotalAttempts:     len(all),
		CompletedAttempts: len(done),
		PassRate:          passRate(done),
		CompletionRate:    completionRate(all),
		Difficulty:        quizDifficulty(done),
		AverageMinutes:    averageMinutes(done),
		ScoreDistribution: scoreDistribution(done),
	}
	for _, a := range done {
		rep.AverageScore += a.PercentScore
		if a.Passed {
			rep.PassedCount++
		} else {
			rep.FailedCount++
		}
	}
	if len(done) > 0 {
		rep.AverageScore /= float64(len(done))
	}

	for _, q := range z.Questions {
		qs, err := e.questionStats(ctx, q)
		if err != nil {
			return QuizReport{}, fmt.Errorf("question %s stats: %w", q.ID, err)
		}
		rep.Questions = append(rep.Questions, qs)
	}
	return rep, nil
}

func (e *Engine) questionStats(ctx context.Context, q catalog.Question) (QuestionStats, error) {
	answers, err := e.store.ListAnswersByQuestion(ctx, q.ID)
	if err != nil {
		return QuestionStats{}, err
	}
	qs := QuestionStats{
		QuestionID:   q.ID,
		Type:         string(q.Type),
		TotalAnswers: len(answers),
		Difficulty:   neutralDifficulty,
	}
	selections := map[string]int{}
	for _, ans := range answers {
		if ans.Correct {
			qs.CorrectAnswers++
		}
		for _, optID := range ans.SelectedOptionIDs {
			selections[optID]++
		}
	}
	if len(answers) > 0 {
		qs.CorrectPercent = float64(qs.CorrectAnswers) / float64(len(answers)) * 100
		qs.Difficulty = 100 - qs.CorrectPercent
	}
	for _, o := range q.Options {
		os := OptionStats{
			OptionID:       o.ID,
			Text:           o.Text,
			Correct:        o.Correct,
			SelectionCount: selections[o.ID],
		}
		if len(answers) > 0 {
			os.SelectionPercent = float64(os.SelectionCount) / float64(len(answers)) * 100
		}
		qs.Options = append(qs.Options, os)
	}
	return qs, nil
}
