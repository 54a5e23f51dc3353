package attempt

import (
	"context"
	"sort"
	"sync"

	"github.com/quizcraft/quizcraft-core/internal/errs"
)

// memoryStore keeps all state behind one mutex, which trivially gives
// the per-attempt atomicity the Store contract asks for.
type memoryStore struct {
	mu       sync.RWMutex
	attempts map[string]Attempt
	answers  map[string]Answer // by answer id
	byPair   map[string]string // attemptID|questionID -> answer id
}

func NewInMemoryStore() Store {
	return &memoryStore{
		attempts: map[string]Attempt{},
		answers:  map[string]Answer{},
		byPair:   map[string]string{},
	}
}

func pairKey(attemptID, questionID string) string { return attemptID + "|" + questionID }

func (m *memoryStore) CreateAttempt(_ context.Context, a Attempt) (Attempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.attempts {
		if existing.QuizID == a.QuizID && existing.StudentID == a.StudentID && existing.Status == StatusInProgress {
			return existing, false, nil
		}
	}
	m.attempts[a.ID] = a
	return a, true, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, errs.NotFoundf("attempt %s", id)
	}
	return a, nil
}

func (m *memoryStore) FindInProgress(_ context.Context, quizID, studentID string) (Attempt, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.StudentID == studentID && a.Status == StatusInProgress {
			return a, true, nil
		}
	}
	return Attempt{}, false, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts ListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.StudentID != "" && a.StudentID != opts.StudentID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt > out[j].StartedAt
		}
		return out[i].ID < out[j].ID
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) GetAnswer(_ context.Context, id string) (Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ans, ok := m.answers[id]
	if !ok {
		return Answer{}, errs.NotFoundf("answer %s", id)
	}
	return ans, nil
}

func (m *memoryStore) ListAnswers(_ context.Context, attemptID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.answersOf(attemptID), nil
}

func (m *memoryStore) answersOf(attemptID string) []Answer {
	var out []Answer
	for _, ans := range m.answers {
		if ans.AttemptID == attemptID {
			out = append(out, ans)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

func (m *memoryStore) ListAnswersByQuestion(_ context.Context, questionID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Answer
	for _, ans := range m.answers {
		if ans.QuestionID == questionID {
			out = append(out, ans)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) UpsertAnswer(_ context.Context, ans Answer) (Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[ans.AttemptID]
	if !ok {
		return Answer{}, errs.NotFoundf("attempt %s", ans.AttemptID)
	}
	if a.Status != StatusInProgress {
		return Answer{}, errs.InvalidStatef("attempt %s is %s", a.ID, a.Status)
	}
	k := pairKey(ans.AttemptID, ans.QuestionID)
	if existingID, ok := m.byPair[k]; ok {
		ans.ID = existingID // replacement keeps the record's identity
	}
	m.answers[ans.ID] = ans
	m.byPair[k] = ans.ID
	return ans, nil
}

func (m *memoryStore) FinalizeAttempt(_ context.Context, attemptID string, agg AggregateFn, now int64) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, errs.NotFoundf("attempt %s", attemptID)
	}
	if a.Status != StatusInProgress {
		return Attempt{}, errs.InvalidStatef("attempt %s already %s", a.ID, a.Status)
	}
	res := agg(m.answersOf(attemptID))
	a.Status = StatusCompleted
	a.SubmittedAt = &now
	a.Score = res.Score
	a.PercentScore = res.Percent
	a.Passed = res.Passed
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) ApplyManualGrade(_ context.Context, answerID string, apply func(Answer) (Answer, error), agg AggregateFn) (Answer, Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ans, ok := m.answers[answerID]
	if !ok {
		return Answer{}, Attempt{}, errs.NotFoundf("answer %s", answerID)
	}
	updated, err := apply(ans)
	if err != nil {
		return Answer{}, Attempt{}, err
	}
	updated.ID = ans.ID
	updated.AttemptID = ans.AttemptID
	updated.QuestionID = ans.QuestionID
	m.answers[answerID] = updated

	a, ok := m.attempts[updated.AttemptID]
	if !ok {
		return Answer{}, Attempt{}, errs.NotFoundf("attempt %s", updated.AttemptID)
	}
	res := agg(m.answersOf(updated.AttemptID))
	a.Score = res.Score
	a.PercentScore = res.Percent
	a.Passed = res.Passed
	m.attempts[a.ID] = a
	return updated, a, nil
}
