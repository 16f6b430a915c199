package services

import (
	"log"

	"gorm.io/gorm"

	"testplatform/backend/apperrors"
	"testplatform/backend/models"
)

type AnalyticsService struct {
	DB    *gorm.DB
	Tests *TestService
	Log   *log.Logger
}

func NewAnalyticsService(db *gorm.DB, tests *TestService, logger *log.Logger) *AnalyticsService {
	return &AnalyticsService{DB: db, Tests: tests, Log: logger}
}

// ScoreStats summarizes attempt scores for one test.
type ScoreStats struct {
	Attempts int64   `json:"attempts"`
	AvgScore float64 `json:"avg_score"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
}

// QuestionStats is the per-question correct rate for one test.
type QuestionStats struct {
	QuestionID uint    `json:"question_id"`
	Prompt     string  `json:"prompt"`
	Answered   int64   `json:"answered"`
	Correct    int64   `json:"correct"`
	Rate       float64 `json:"rate"`
}

// TestAnalytics is the teacher-facing dashboard payload for one test.
type TestAnalytics struct {
	TestID    uint            `json:"test_id"`
	TestTitle string          `json:"test_title"`
	Stats     ScoreStats      `json:"stats"`
	Questions []QuestionStats `json:"questions"`
}

// StudentAttemptSummary is one row of the student dashboard.
type StudentAttemptSummary struct {
	AttemptID uint    `json:"attempt_id"`
	TestID    uint    `json:"test_id"`
	TestTitle string  `json:"test_title"`
	TestType  string  `json:"test_type"`
	Score     float64 `json:"score"`
}

// Improvement compares a student's pre-test and post-test results.
type Improvement struct {
	PreScore       float64 `json:"pre_score"`
	PostScore      float64 `json:"post_score"`
	ImprovementAbs float64 `json:"improvement_abs"`
	ImprovementPct float64 `json:"improvement_pct"`
}

// TestAnalytics aggregates attempt scores and per-question correct rates for
// a test owned by the teacher.
func (s *AnalyticsService) TestAnalytics(teacherID, testID uint) (*TestAnalytics, error) {
	test, err := s.Tests.GetTeacherTest(teacherID, testID)
	if err != nil {
		return nil, err
	}

	result := TestAnalytics{TestID: test.ID, TestTitle: test.Title}

	// Scan replaces the whole destination struct, so the count has to ride
	// in the same select as the score aggregates.
	err = s.DB.Model(&models.Attempt{}).
		Select("COUNT(*) AS attempts, COALESCE(AVG(score), 0) AS avg_score, COALESCE(MIN(score), 0) AS min_score, COALESCE(MAX(score), 0) AS max_score").
		Where("test_id = ?", test.ID).
		Scan(&result.Stats).Error
	if err != nil {
		return nil, apperrors.Internal("could not aggregate scores", err)
	}

	var rows []QuestionStats
	err = s.DB.Raw(`
		SELECT q.id AS question_id, q.prompt AS prompt,
		COUNT(a.id) AS answered,
		COALESCE(SUM(CASE WHEN a.selected = q.correct_answer THEN 1 ELSE 0 END), 0) AS correct
		FROM questions q
		LEFT JOIN answers a ON a.question_id = q.id AND a.deleted_at IS NULL
		WHERE q.test_id = ? AND q.deleted_at IS NULL
		GROUP BY q.id, q.prompt, q.sequence_order
		ORDER BY q.sequence_order
	`, test.ID).Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Internal("could not aggregate question stats", err)
	}
	for i := range rows {
		if rows[i].Answered > 0 {
			rows[i].Rate = float64(rows[i].Correct) / float64(rows[i].Answered)
		}
	}
	result.Questions = rows

	return &result, nil
}

// StudentOverview lists a student's attempts with test titles and scores.
func (s *AnalyticsService) StudentOverview(studentID uint) ([]StudentAttemptSummary, error) {
	var rows []StudentAttemptSummary
	err := s.DB.Model(&models.Attempt{}).
		Select("attempts.id AS attempt_id, attempts.test_id, tests.title AS test_title, tests.test_type, attempts.score").
		Joins("JOIN tests ON tests.id = attempts.test_id").
		Where("attempts.student_id = ?", studentID).
		Order("attempts.completed_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Internal("could not query attempts", err)
	}
	return rows, nil
}

// Improvement compares the student's mean score on a pre test against a
// post test.
func (s *AnalyticsService) Improvement(studentID, preTestID, postTestID uint) (*Improvement, error) {
	pre, err := s.meanScore(studentID, preTestID)
	if err != nil {
		return nil, err
	}
	post, err := s.meanScore(studentID, postTestID)
	if err != nil {
		return nil, err
	}

	result := Improvement{
		PreScore:       pre,
		PostScore:      post,
		ImprovementAbs: post - pre,
	}
	if pre > 0 {
		result.ImprovementPct = (post - pre) / pre * 100.0
	}
	return &result, nil
}

func (s *AnalyticsService) meanScore(studentID, testID uint) (float64, error) {
	var count int64
	if err := s.DB.Model(&models.Attempt{}).
		Where("student_id = ? AND test_id = ?", studentID, testID).
		Count(&count).Error; err != nil {
		return 0, apperrors.Internal("could not query attempts", err)
	}
	if count == 0 {
		return 0, nil
	}

	var mean float64
	err := s.DB.Model(&models.Attempt{}).
		Select("AVG(score)").
		Where("student_id = ? AND test_id = ?", studentID, testID).
		Scan(&mean).Error
	if err != nil {
		return 0, apperrors.Internal("could not aggregate scores", err)
	}
	return mean, nil
}
