package services

import (
	"time"

	"testplatform/backend/apperrors"
	"testplatform/backend/models"
)

// TestExport is the top-level structure for exporting a test's results.
type TestExport struct {
	TestID     uint            `json:"test_id"`
	Title      string          `json:"title"`
	TestType   string          `json:"test_type"`
	State      string          `json:"state"`
	ExportedAt time.Time       `json:"exported_at"`
	Questions  int             `json:"num_questions"`
	Results    []StudentExport `json:"results"`
}

// StudentExport holds one student's scored attempt for export.
type StudentExport struct {
	StudentID   uint           `json:"student_id"`
	Username    string         `json:"username"`
	Score       float64        `json:"score"`
	CompletedAt time.Time      `json:"completed_at"`
	Answers     []AnswerResult `json:"answers"`
}

// ExportResults builds the full result export for a test owned by the
// teacher: every scored attempt with its per-question breakdown.
func (s *AttemptService) ExportResults(teacherID, testID uint) (*TestExport, error) {
	test, err := s.Tests.GetTeacherTest(teacherID, testID)
	if err != nil {
		return nil, err
	}

	var attempts []models.Attempt
	if err := s.DB.Where("test_id = ?", test.ID).
		Order("completed_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, apperrors.Internal("could not query attempts", err)
	}

	export := TestExport{
		TestID:     test.ID,
		Title:      test.Title,
		TestType:   test.TestType,
		State:      test.State,
		ExportedAt: time.Now(),
		Questions:  len(test.Questions),
		Results:    make([]StudentExport, 0, len(attempts)),
	}

	for _, attempt := range attempts {
		result, err := s.AttemptResults(test.TeacherID, attempt.ID)
		if err != nil {
			return nil, err
		}
		var student models.User
		if err := s.DB.First(&student, attempt.StudentID).Error; err != nil {
			return nil, apperrors.Internal("could not query users", err)
		}
		export.Results = append(export.Results, StudentExport{
			StudentID:   student.ID,
			Username:    student.Username,
			Score:       attempt.Score,
			CompletedAt: attempt.CompletedAt,
			Answers:     result.Answers,
		})
	}

	return &export, nil
}
