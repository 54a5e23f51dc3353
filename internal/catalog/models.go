package catalog

// QuestionType tags how a question is answered and graded.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	MultipleAnswer QuestionType = "multiple_answer"
	TrueFalse      QuestionType = "true_false"
	Essay          QuestionType = "essay"
	ShortAnswer    QuestionType = "short_answer"
)

// Objective reports whether the type is auto-gradable.
func (t QuestionType) Objective() bool {
	switch t {
	case MultipleChoice, MultipleAnswer, TrueFalse:
		return true
	}
	return false
}

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, MultipleAnswer, TrueFalse, Essay, ShortAnswer:
		return true
	}
	return false
}

type Option struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Correct  bool   `json:"correct,omitempty"`
	Position int    `json:"position"`
}

type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Points   int          `json:"points"`
	Position int          `json:"position"`
	Options  []Option     `json:"options,omitempty"` // empty for essay/short_answer
}

// CorrectOptionIDs returns the ids of options flagged correct.
func (q Question) CorrectOptionIDs() []string {
	var ids []string
	for _, o := range q.Options {
		if o.Correct {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Option looks up an option of this question by id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

type Quiz struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Published          bool       `json:"published"`
	PassingScore       float64    `json:"passing_score"` // percentage, 0-100
	TimeLimitSec       int        `json:"time_limit_sec"`
	AvailableFrom      int64      `json:"available_from,omitempty"`  // unix; 0 = no lower bound
	AvailableUntil     int64      `json:"available_until,omitempty"` // unix; 0 = no upper bound
	RandomizeQuestions bool       `json:"randomize_questions"`
	Questions          []Question `json:"questions"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// TotalPoints sums the point values of all questions.
func (z Quiz) TotalPoints() int {
	total := 0
	for _, q := range z.Questions {
		total += q.Points
	}
	return total
}

// Question looks up a question of this quiz by id.
func (z Quiz) Question(id string) (Question, bool) {
	for _, q := range z.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// AvailableAt reports whether the quiz window contains the given unix time.
func (z Quiz) AvailableAt(now int64) bool {
	if z.AvailableFrom > 0 && now < z.AvailableFrom {
		return false
	}
	if z.AvailableUntil > 0 && now > z.AvailableUntil {
		return false
	}
	return true
}

// StudentView returns a copy of the quiz with correctness flags stripped,
// safe to serve to students mid-attempt.
func (z Quiz) StudentView() Quiz {
	out := z
	out.Questions = make([]Question, len(z.Questions))
	for i, q := range z.Questions {
		cq := q
		cq.Options = make([]Option, len(q.Options))
		for j, o := range q.Options {
			co := o
			co.Correct = false
			cq.Options[j] = co
		}
		out.Questions[i] = cq
	}
	return out
}
