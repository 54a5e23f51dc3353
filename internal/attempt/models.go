package attempt

import "github.com/quizcraft/quizcraft-core/internal/catalog"

// Status of an attempt. completed is terminal: the only field changes
// allowed afterwards come through manual grading.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Attempt is one student's run through a quiz. Score fields are a
// derived view over the attempt's answers, recomputed on finalize and
// on manual grading.
type Attempt struct {
	ID           string  `json:"id"`
	QuizID       string  `json:"quiz_id"`
	StudentID    string  `json:"student_id"`
	Status       Status  `json:"status"`
	StartedAt    int64   `json:"started_at"`             // unix seconds
	SubmittedAt  *int64  `json:"submitted_at,omitempty"` // set on finalize
	Score        float64 `json:"score"`
	PercentScore float64 `json:"percent_score"`
	Passed       bool    `json:"passed"`
}

// Answer is one student's response to one question within one attempt.
// At most one exists per (attempt, question); resubmission replaces it.
type Answer struct {
	ID                string   `json:"id"`
	AttemptID         string   `json:"attempt_id"`
	QuestionID        string   `json:"question_id"`
	SelectedOptionIDs []string `json:"selected_option_ids,omitempty"`
	Text              string   `json:"text,omitempty"`
	Score             float64  `json:"score"`
	Correct           bool     `json:"correct"`
	NeedsManualGrade  bool     `json:"needs_manual_grade"`
	Feedback          string   `json:"feedback,omitempty"`
	GradedBy          string   `json:"graded_by,omitempty"`
	GradedAt          *int64   `json:"graded_at,omitempty"`
}

// Aggregate is the derived scoring state of an attempt.
type Aggregate struct {
	Score   float64
	Percent float64
	Passed  bool
}

// AggregateFn computes an attempt's aggregate from its current answers.
// Stores invoke it inside the same atomic unit that writes the result.
type AggregateFn func(answers []Answer) Aggregate

// RecomputeAggregate is the single scoring formula shared by finalize
// and manual grading: sum of answer scores, percentage against the
// quiz's total possible points, passed at the quiz's threshold.
func RecomputeAggregate(answers []Answer, z catalog.Quiz) Aggregate {
	var sum float64
	for _, a := range answers {
		sum += a.Score
	}
	var pct float64
	if total := z.TotalPoints(); total > 0 {
		pct = sum / float64(total) * 100
	}
	return Aggregate{Score: sum, Percent: pct, Passed: pct >= z.PassingScore}
}

// View is what StartAttempt hands back: the attempt, the student-safe
// quiz structure (shuffled when the quiz requests it), and previously
// submitted answers keyed by question id so a resumed attempt shows
// prior selections.
type View struct {
	Attempt Attempt           `json:"attempt"`
	Quiz    catalog.Quiz      `json:"quiz"`
	Answers map[string]Answer `json:"answers"`
}

// Detail is an attempt together with all of its answers.
type Detail struct {
	Attempt Attempt  `json:"attempt"`
	Answers []Answer `json:"answers"`
}
