package service

import (
	"testing"

	"github.com/google/uuid"

	"github.com/classpoint/cbt-backend/internal/model"
)

func objectiveQuestion(answer string, marks int) model.Question {
	return model.Question{
		ID:            uuid.New(),
		QuestionType:  model.QuestionTypeMultipleChoice,
		CorrectAnswer: answer,
		Marks:         marks,
	}
}

func fixtureExam(t *testing.T) ([]uuid.UUID, map[uuid.UUID]model.Question) {
	t.Helper()
	q1 := objectiveQuestion("4", 40)
	q2 := objectiveQuestion("TRUE", 30)
	q3 := objectiveQuestion("Paris", 30)
	order := []uuid.UUID{q1.ID, q2.ID, q3.ID}
	questions := map[uuid.UUID]model.Question{q1.ID: q1, q2.ID: q2, q3.ID: q3}
	return order, questions
}

func TestComputeResult(t *testing.T) {
	sessionID := uuid.New()

	t.Run("PartialScorePasses", func(t *testing.T) {
		order, questions := fixtureExam(t)
		answers := []model.SubmittedAnswer{
			{QuestionID: order[0], Answer: "4"},
			{QuestionID: order[1], Answer: "TRUE"},
			{QuestionID: order[2], Answer: "London"},
		}

		result := ComputeResult(sessionID, order, questions, answers, 100, 60)
		if result.Score != 70 {
			t.Fatalf("score = %d, want 70", result.Score)
		}
		if !result.Passed {
			t.Error("70/100 with pass mark 60 should pass")
		}
		if result.Percentage != 70 {
			t.Errorf("percentage = %v, want 70", result.Percentage)
		}
		if result.Band != "A" {
			t.Errorf("band = %s, want A", result.Band)
		}
		if len(result.Answers) != 3 {
			t.Fatalf("expected 3 answer records, got %d", len(result.Answers))
		}
	})

	t.Run("CaseAndWhitespaceInsensitive", func(t *testing.T) {
		order, questions := fixtureExam(t)
		answers := []model.SubmittedAnswer{
			{QuestionID: order[2], Answer: "  pArIs "},
		}

		result := ComputeResult(sessionID, order, questions, answers, 100, 60)
		if result.Score != 30 {
			t.Errorf("score = %d, want 30", result.Score)
		}
	})

	t.Run("UnansweredScoresZero", func(t *testing.T) {
		order, questions := fixtureExam(t)

		result := ComputeResult(sessionID, order, questions, nil, 100, 60)
		if result.Score != 0 {
			t.Errorf("score = %d, want 0", result.Score)
		}
		if result.Passed {
			t.Error("blank submission should not pass")
		}
		// Every locked question still gets a record.
		if len(result.Answers) != 3 {
			t.Fatalf("expected 3 answer records, got %d", len(result.Answers))
		}
		for _, a := range result.Answers {
			if a.IsCorrect == nil || *a.IsCorrect {
				t.Errorf("unanswered objective question at position %d should be recorded incorrect", a.Position)
			}
		}
	})

	t.Run("AnswersOutsideLockedOrderIgnored", func(t *testing.T) {
		order, questions := fixtureExam(t)
		answers := []model.SubmittedAnswer{
			{QuestionID: uuid.New(), Answer: "4"},
		}

		result := ComputeResult(sessionID, order, questions, answers, 100, 60)
		if result.Score != 0 {
			t.Errorf("score = %d, want 0 for answers outside the locked order", result.Score)
		}
	})

	t.Run("ZeroTotalMarks", func(t *testing.T) {
		order, questions := fixtureExam(t)

		result := ComputeResult(sessionID, order, questions, nil, 0, 0)
		if result.Percentage != 0 {
			t.Errorf("percentage = %v, want 0 when total marks is 0", result.Percentage)
		}
	})

	t.Run("EssayLeftUngraded", func(t *testing.T) {
		essay := model.Question{
			ID:           uuid.New(),
			QuestionType: model.QuestionTypeEssay,
			Marks:        20,
		}
		order := []uuid.UUID{essay.ID}
		questions := map[uuid.UUID]model.Question{essay.ID: essay}
		answers := []model.SubmittedAnswer{{QuestionID: essay.ID, Answer: "long prose"}}

		result := ComputeResult(sessionID, order, questions, answers, 20, 10)
		if len(result.Answers) != 1 {
			t.Fatalf("expected 1 answer record, got %d", len(result.Answers))
		}
		if result.Answers[0].IsCorrect != nil {
			t.Error("essay answers must stay ungraded")
		}
		if result.Score != 0 {
			t.Errorf("score = %d, want 0 before manual grading", result.Score)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		order, questions := fixtureExam(t)
		answers := []model.SubmittedAnswer{
			{QuestionID: order[0], Answer: "4"},
		}

		first := ComputeResult(sessionID, order, questions, answers, 100, 60)
		second := ComputeResult(sessionID, order, questions, answers, 100, 60)
		if first.Score != second.Score || first.Percentage != second.Percentage || first.Band != second.Band {
			t.Error("grading the same submission twice must yield the same result")
		}
	})
}

func TestGradeBand(t *testing.T) {
	cases := []struct {
		percentage float64
		want       string
	}{
		{100, "A"},
		{70, "A"},
		{69.9, "B"},
		{60, "B"},
		{59, "C"},
		{50, "C"},
		{49, "D"},
		{45, "D"},
		{44.9, "F"},
		{0, "F"},
	}

	for _, tc := range cases {
		if got := GradeBand(tc.percentage); got != tc.want {
			t.Errorf("GradeBand(%v) = %s, want %s", tc.percentage, got, tc.want)
		}
	}
}
