package catalog

import "context"

// Store is the read-side of the quiz catalog. The assessment core treats
// quiz structure as external input: it reads definitions and never edits
// them. PutQuiz exists only as the ingestion seam for whatever system
// owns quiz authoring.
type Store interface {
	PutQuiz(ctx context.Context, z Quiz) error
	// GetQuiz returns the full quiz including correctness flags.
	// Callers serving students must apply StudentView.
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	// GetQuestion resolves a question by id across all quizzes.
	GetQuestion(ctx context.Context, id string) (Question, error)
}
