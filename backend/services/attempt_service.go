package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"testplatform/backend/apperrors"
	"testplatform/backend/models"
)

type AttemptService struct {
	DB    *gorm.DB
	Tests *TestService
	Log   *log.Logger
}

func NewAttemptService(db *gorm.DB, tests *TestService, logger *log.Logger) *AttemptService {
	return &AttemptService{DB: db, Tests: tests, Log: logger}
}

// AnswerInput is one submitted answer: a question and the selected option.
type AnswerInput struct {
	QuestionID uint `json:"question_id"`
	Selected   int  `json:"selected"`
}

// QuestionView is a question as shown to a student: no correct index.
type QuestionView struct {
	ID         uint     `json:"id"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
	TopicTag   string   `json:"topic_tag,omitempty"`
	Difficulty string   `json:"difficulty"`
	Order      int      `json:"order"`
}

// TestView is the payload a student receives when starting an attempt.
type TestView struct {
	TestID    uint           `json:"test_id"`
	Title     string         `json:"title"`
	TestType  string         `json:"test_type"`
	Questions []QuestionView `json:"questions"`
}

// AnswerResult is the per-question breakdown of a scored attempt.
type AnswerResult struct {
	QuestionID    uint     `json:"question_id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	Selected      int      `json:"selected"`
	CorrectAnswer int      `json:"correct_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Explanation   string   `json:"explanation,omitempty"`
	TopicTag      string   `json:"topic_tag,omitempty"`
}

// AttemptResult is the full result view of one attempt.
type AttemptResult struct {
	AttemptID   uint           `json:"attempt_id"`
	TestID      uint           `json:"test_id"`
	TestTitle   string         `json:"test_title"`
	Score       float64        `json:"score"`
	CompletedAt time.Time      `json:"completed_at"`
	Answers     []AnswerResult `json:"answers"`
}

// StartAttempt resolves the access key and returns the test questions with
// correct indices withheld.
func (s *AttemptService) StartAttempt(studentID uint, key string) (*TestView, error) {
	test, err := s.Tests.GetTestByAccessKey(key)
	if err != nil {
		return nil, err
	}

	view := TestView{
		TestID:    test.ID,
		Title:     test.Title,
		TestType:  test.TestType,
		Questions: make([]QuestionView, 0, len(test.Questions)),
	}
	for _, q := range test.Questions {
		options, err := q.OptionList()
		if err != nil {
			return nil, apperrors.Internal("could not decode options", err)
		}
		view.Questions = append(view.Questions, QuestionView{
			ID:         q.ID,
			Prompt:     q.Prompt,
			Options:    options,
			TopicTag:   q.TopicTag,
			Difficulty: q.Difficulty,
			Order:      q.SequenceOrder,
		})
	}

	s.Log.Printf("attempt started student_id=%d test_id=%d", studentID, test.ID)
	return &view, nil
}

// SubmitAttempt validates the answer set, computes the score and persists the
// attempt with its answers in one transaction. A second submission for the
// same student/test pair is rejected.
func (s *AttemptService) SubmitAttempt(studentID, testID uint, answers []AnswerInput) (*models.Attempt, error) {
	var attempt models.Attempt

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var test models.Test
		if err := tx.First(&test, testID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("test not found")
			}
			return apperrors.Internal("could not query tests", err)
		}
		if !test.IsPublished() {
			return apperrors.State("test is not published")
		}

		var questions []models.Question
		if err := tx.Where("test_id = ?", testID).Find(&questions).Error; err != nil {
			return apperrors.Internal("could not query questions", err)
		}
		if len(questions) == 0 {
			return apperrors.State("test has no questions")
		}

		var existing int64
		if err := tx.Model(&models.Attempt{}).
			Where("student_id = ? AND test_id = ?", studentID, testID).
			Count(&existing).Error; err != nil {
			return apperrors.Internal("could not query attempts", err)
		}
		if existing > 0 {
			return apperrors.State("attempt already submitted for this test")
		}

		correctByID := make(map[uint]int, len(questions))
		for _, q := range questions {
			correctByID[q.ID] = q.CorrectAnswer
		}

		seen := make(map[uint]bool, len(answers))
		fields := make(map[string]string)
		for i, a := range answers {
			field := fmt.Sprintf("answers[%d]", i)
			if _, ok := correctByID[a.QuestionID]; !ok {
				fields[field] = "question does not belong to this test"
				continue
			}
			if seen[a.QuestionID] {
				fields[field] = "duplicate answer for question"
				continue
			}
			seen[a.QuestionID] = true
			if a.Selected < 0 || a.Selected >= models.OptionCount {
				fields[field] = "selected index must be between 0 and 3"
			}
		}
		if len(fields) > 0 {
			return apperrors.Validation("invalid answers", fields)
		}
		if len(seen) != len(questions) {
			return apperrors.Validation("all questions must be answered", map[string]string{
				"answers": fmt.Sprintf("expected %d answers, got %d", len(questions), len(seen)),
			})
		}

		correct := 0
		records := make([]models.Answer, 0, len(answers))
		for _, a := range answers {
			if a.Selected == correctByID[a.QuestionID] {
				correct++
			}
			records = append(records, models.Answer{QuestionID: a.QuestionID, Selected: a.Selected})
		}

		attempt = models.Attempt{
			TestID:      testID,
			StudentID:   studentID,
			Score:       float64(correct) / float64(len(questions)),
			CompletedAt: time.Now(),
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return apperrors.Internal("could not create attempt", err)
		}
		for i := range records {
			records[i].AttemptID = attempt.ID
		}
		if err := tx.Create(&records).Error; err != nil {
			return apperrors.Internal("could not store answers", err)
		}
		attempt.Answers = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Printf("attempt submitted id=%d student_id=%d test_id=%d score=%.4f",
		attempt.ID, studentID, testID, attempt.Score)
	return &attempt, nil
}

// AttemptResults builds the per-question breakdown. Visible to the student
// who made the attempt and to the teacher who owns the test.
func (s *AttemptService) AttemptResults(requesterID, attemptID uint) (*AttemptResult, error) {
	var attempt models.Attempt
	if err := s.DB.Preload("Answers").First(&attempt, attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("attempt not found")
		}
		return nil, apperrors.Internal("could not query attempts", err)
	}

	var test models.Test
	if err := s.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).First(&test, attempt.TestID).Error; err != nil {
		return nil, apperrors.Internal("could not query tests", err)
	}

	if requesterID != attempt.StudentID && requesterID != test.TeacherID {
		return nil, apperrors.NotFound("attempt not found")
	}

	selectedByQuestion := make(map[uint]int, len(attempt.Answers))
	for _, a := range attempt.Answers {
		selectedByQuestion[a.QuestionID] = a.Selected
	}

	result := AttemptResult{
		AttemptID:   attempt.ID,
		TestID:      test.ID,
		TestTitle:   test.Title,
		Score:       attempt.Score,
		CompletedAt: attempt.CompletedAt,
		Answers:     make([]AnswerResult, 0, len(test.Questions)),
	}
	for _, q := range test.Questions {
		options, err := q.OptionList()
		if err != nil {
			return nil, apperrors.Internal("could not decode options", err)
		}
		selected := selectedByQuestion[q.ID]
		result.Answers = append(result.Answers, AnswerResult{
			QuestionID:    q.ID,
			Prompt:        q.Prompt,
			Options:       options,
			Selected:      selected,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     selected == q.CorrectAnswer,
			Explanation:   q.Explanation,
			TopicTag:      q.TopicTag,
		})
	}
	return &result, nil
}

// ListStudentAttempts returns the student's attempts, newest first.
func (s *AttemptService) ListStudentAttempts(studentID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := s.DB.Where("student_id = ?", studentID).
		Order("completed_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, apperrors.Internal("could not query attempts", err)
	}
	return attempts, nil
}
