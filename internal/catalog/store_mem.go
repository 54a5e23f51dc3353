package catalog

import (
	"context"
	"sync"

	"github.com/quizcraft/quizcraft-core/internal/errs"
)

type memoryStore struct {
	mu      sync.RWMutex
	quizzes map[string]Quiz
	byQstn  map[string]string // question id -> quiz id
}

// NewInMemoryStore returns a Store backed by process memory. Used in
// tests and single-node dev setups.
func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes: map[string]Quiz{},
		byQstn:  map[string]string{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, z Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.quizzes[z.ID]; ok {
		for _, q := range old.Questions {
			delete(m.byQstn, q.ID)
		}
	}
	m.quizzes[z.ID] = z
	for _, q := range z.Questions {
		m.byQstn[q.ID] = z.ID
	}
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, errs.NotFoundf("quiz %s", id)
	}
	return z, nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	quizID, ok := m.byQstn[id]
	if !ok {
		return Question{}, errs.NotFoundf("question %s", id)
	}
	q, ok := m.quizzes[quizID].Question(id)
	if !ok {
		return Question{}, errs.NotFoundf("question %s", id)
	}
	return q, nil
}
