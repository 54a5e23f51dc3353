package grading

import (
	"context"
	"testing"

	"github.com/quizcraft/quizcraft-core/internal/catalog"
)

func mcQuestion() catalog.Question {
	return catalog.Question{
		ID:     "q1",
		Type:   catalog.MultipleChoice,
		Points: 5,
		Options: []catalog.Option{
			{ID: "7", Correct: true},
			{ID: "8"},
			{ID: "9"},
		},
	}
}

func maQuestion() catalog.Question {
	return catalog.Question{
		ID:     "q2",
		Type:   catalog.MultipleAnswer,
		Points: 5,
		Options: []catalog.Option{
			{ID: "1", Correct: true},
			{ID: "2"},
			{ID: "3", Correct: true},
		},
	}
}

func TestMultipleChoice_CorrectOption(t *testing.T) {
	g := NewDefaultGrader()
	res, err := g.Grade(context.Background(), mcQuestion(), Submission{SelectedOptionIDs: []string{"7"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 5 || !res.Correct {
		t.Fatalf("want 5 points correct, got %+v", res)
	}
	if res.NeedsManual {
		t.Fatalf("objective question must not need manual grading")
	}
}

func TestMultipleChoice_WrongOption(t *testing.T) {
	g := NewDefaultGrader()
	res, err := g.Grade(context.Background(), mcQuestion(), Submission{SelectedOptionIDs: []string{"8"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 0 || res.Correct {
		t.Fatalf("want 0 points incorrect, got %+v", res)
	}
}

func TestMultipleChoice_MultiplePicksScoreZero(t *testing.T) {
	g := NewDefaultGrader()
	res, err := g.Grade(context.Background(), mcQuestion(), Submission{SelectedOptionIDs: []string{"7", "8"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 0 || res.Correct {
		t.Fatalf("want 0 points incorrect, got %+v", res)
	}
}

func TestTrueFalse_UsesSingleChoiceRule(t *testing.T) {
	q := catalog.Question{
		ID:     "q3",
		Type:   catalog.TrueFalse,
		Points: 2,
		Options: []catalog.Option{
			{ID: "t", Correct: true},
			{ID: "f"},
		},
	}
	g := NewDefaultGrader()
	res, err := g.Grade(context.Background(), q, Submission{SelectedOptionIDs: []string{"t"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 2 || !res.Correct {
		t.Fatalf("want full credit, got %+v", res)
	}
}

func TestMultipleAnswer_ExactSetRequired(t *testing.T) {
	g := NewDefaultGrader()

	res, err := g.Grade(context.Background(), maQuestion(), Submission{SelectedOptionIDs: []string{"3", "1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 5 || !res.Correct {
		t.Fatalf("exact set should score full, got %+v", res)
	}

	// Subset gets nothing by default: no partial credit.
	res, err = g.Grade(context.Background(), maQuestion(), Submission{SelectedOptionIDs: []string{"1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 0 || res.Correct {
		t.Fatalf("subset should score 0 incorrect, got %+v", res)
	}
}

func TestMultipleAnswer_NoCorrectOptions(t *testing.T) {
	q := catalog.Question{
		ID:     "q2",
		Type:   catalog.MultipleAnswer,
		Points: 5,
		Options: []catalog.Option{
			{ID: "1"},
			{ID: "2"},
		},
	}
	g := NewDefaultGrader()

	// Set equality governs: the empty selection matches an empty key.
	res, err := g.Grade(context.Background(), q, Submission{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 5 || !res.Correct {
		t.Fatalf("empty selection should match empty key, got %+v", res)
	}

	res, err = g.Grade(context.Background(), q, Submission{SelectedOptionIDs: []string{"1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 0 || res.Correct {
		t.Fatalf("any pick against an empty key should score 0, got %+v", res)
	}
}

func TestMultipleAnswer_FalsePositiveNeverPartial(t *testing.T) {
	g := NewDefaultGrader(WithPartialCredit(true))
	res, err := g.Grade(context.Background(), maQuestion(), Submission{SelectedOptionIDs: []string{"1", "2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 0 {
		t.Fatalf("false positive must void partial credit, got %+v", res)
	}
}

func TestMultipleAnswer_PartialCreditOptIn(t *testing.T) {
	g := NewDefaultGrader(WithPartialCredit(true))
	res, err := g.Grade(context.Background(), maQuestion(), Submission{SelectedOptionIDs: []string{"1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Points != 2.5 {
		t.Fatalf("want 2.5 partial points, got %+v", res)
	}
	if res.Correct {
		t.Fatalf("partial credit is still not a correct answer")
	}
}

func TestEssayAndShortAnswer_AlwaysManual(t *testing.T) {
	g := NewDefaultGrader()
	for _, typ := range []catalog.QuestionType{catalog.Essay, catalog.ShortAnswer} {
		q := catalog.Question{ID: "q4", Type: typ, Points: 10}
		res, err := g.Grade(context.Background(), q, Submission{Text: "free text response"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", typ, err)
		}
		if !res.NeedsManual {
			t.Fatalf("%s: must need manual grading", typ)
		}
		if res.Points != 0 || res.Correct {
			t.Fatalf("%s: must start at 0/incorrect, got %+v", typ, res)
		}
	}
}

func TestUnknownType_InvalidArgument(t *testing.T) {
	g := NewDefaultGrader()
	q := catalog.Question{ID: "q5", Type: "matching", Points: 1}
	if _, err := g.Grade(context.Background(), q, Submission{}); err == nil {
		t.Fatalf("expected error for unknown question type")
	}
}
