package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testplatform/backend/apperrors"
	"testplatform/backend/models"
	"testplatform/backend/validation"
)

func attemptFixture(t *testing.T, correct ...int) (*AttemptService, *models.Test, *models.User, *models.User) {
	t.Helper()
	db := openTestDB(t)
	tests := NewTestService(db, testLogger())
	svc := NewAttemptService(db, tests, testLogger())
	teacher := createUser(t, db, "teacher1", models.RoleTeacher)
	student := createUser(t, db, "student1", models.RoleStudent)
	test := buildPublishedTest(t, tests, teacher.ID, correct...)
	return svc, test, teacher, student
}

func answersFor(test *models.Test, selected ...int) []AnswerInput {
	answers := make([]AnswerInput, len(selected))
	for i, s := range selected {
		answers[i] = AnswerInput{QuestionID: test.Questions[i].ID, Selected: s}
	}
	return answers
}

func loadQuestions(t *testing.T, svc *AttemptService, test *models.Test) {
	t.Helper()
	require.NoError(t, svc.DB.Where("test_id = ?", test.ID).Order("sequence_order ASC").Find(&test.Questions).Error)
}

func TestSubmitAttemptScenario(t *testing.T) {
	// Teacher publishes a 2-question test with correct indices [1,1];
	// the student answers [1,0] and scores exactly 0.5.
	svc, test, _, student := attemptFixture(t, 1, 1)
	loadQuestions(t, svc, test)

	attempt, err := svc.SubmitAttempt(student.ID, test.ID, answersFor(test, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.5, attempt.Score)
	assert.Len(t, attempt.Answers, 2)
}

func TestSubmitAttemptExactScore(t *testing.T) {
	svc, test, _, student := attemptFixture(t, 0, 1, 2, 3)
	loadQuestions(t, svc, test)

	// 3 of 4 correct
	attempt, err := svc.SubmitAttempt(student.ID, test.ID, answersFor(test, 0, 1, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.75, attempt.Score)
}

func TestSubmitAttemptTwiceRejected(t *testing.T) {
	svc, test, _, student := attemptFixture(t, 1, 1)
	loadQuestions(t, svc, test)

	_, err := svc.SubmitAttempt(student.ID, test.ID, answersFor(test, 1, 1))
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(student.ID, test.ID, answersFor(test, 0, 0))
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))

	// Exactly one scored attempt exists
	var count int64
	svc.DB.Model(&models.Attempt{}).
		Where("student_id = ? AND test_id = ?", student.ID, test.ID).
		Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSubmitAttemptMissingAnswers(t *testing.T) {
	svc, test, _, student := attemptFixture(t, 1, 1)
	loadQuestions(t, svc, test)

	_, err := svc.SubmitAttempt(student.ID, test.ID, answersFor(test, 1))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// No partial writes
	var count int64
	svc.DB.Model(&models.Attempt{}).Where("test_id = ?", test.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestSubmitAttemptIndexOutOfRange(t *testing.T) {
	svc, test, _, student := attemptFixture(t, 1, 1)
	loadQuestions(t, svc, test)

	_, err := svc.SubmitAttempt(student.ID, test.ID, answersFor(test, 1, 4))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = svc.SubmitAttempt(student.ID, test.ID, answersFor(test, -1, 1))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestSubmitAttemptForeignQuestion(t *testing.T) {
	svc, test, teacher, student := attemptFixture(t, 1, 1)
	loadQuestions(t, svc, test)

	otherTest := buildPublishedTest(t, svc.Tests, teacher.ID, 0)
	loadQuestions(t, svc, otherTest)

	answers := answersFor(test, 1, 1)
	answers[1].QuestionID = otherTest.Questions[0].ID
	_, err := svc.SubmitAttempt(student.ID, test.ID, answers)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestSubmitAttemptDuplicateAnswer(t *testing.T) {
	svc, test, _, student := attemptFixture(t, 1, 1)
	loadQuestions(t, svc, test)

	answers := answersFor(test, 1, 1)
	answers[1].QuestionID = answers[0].QuestionID
	_, err := svc.SubmitAttempt(student.ID, test.ID, answers)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestSubmitAttemptUnpublishedTest(t *testing.T) {
	db := openTestDB(t)
	tests := NewTestService(db, testLogger())
	svc := NewAttemptService(db, tests, testLogger())
	teacher := createUser(t, db, "teacher1", models.RoleTeacher)
	student := createUser(t, db, "student1", models.RoleStudent)

	draft, err := tests.CreateTest(teacher.ID, validation.TestInput{Title: "Draft", TestType: "pre"})
	require.NoError(t, err)
	_, err = tests.AddQuestion(teacher.ID, draft.ID, questionInput("Draft question prompt", 0))
	require.NoError(t, err)

	loadQuestions(t, svc, draft)
	_, err = svc.SubmitAttempt(student.ID, draft.ID, answersFor(draft, 0))
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))
}

func TestStartAttemptHidesCorrectAnswers(t *testing.T) {
	svc, test, _, student := attemptFixture(t, 1, 1)

	view, err := svc.StartAttempt(student.ID, test.AccessKey.Key)
	require.NoError(t, err)
	assert.Equal(t, test.ID, view.TestID)
	require.Len(t, view.Questions, 2)
	for _, q := range view.Questions {
		assert.Len(t, q.Options, models.OptionCount)
	}
}

func TestAttemptResultsBreakdown(t *testing.T) {
	svc, test, teacher, student := attemptFixture(t, 1, 1)
	loadQuestions(t, svc, test)

	attempt, err := svc.SubmitAttempt(student.ID, test.ID, answersFor(test, 1, 0))
	require.NoError(t, err)

	// Visible to the student
	result, err := svc.AttemptResults(student.ID, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.5, result.Score)
	require.Len(t, result.Answers, 2)
	assert.True(t, result.Answers[0].IsCorrect)
	assert.False(t, result.Answers[1].IsCorrect)
	assert.Equal(t, 1, result.Answers[1].CorrectAnswer)

	// Visible to the owning teacher
	_, err = svc.AttemptResults(teacher.ID, attempt.ID)
	assert.NoError(t, err)

	// Hidden from anyone else
	stranger := createUser(t, svc.DB, "stranger", models.RoleStudent)
	_, err = svc.AttemptResults(stranger.ID, attempt.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestExportResults(t *testing.T) {
	svc, test, teacher, student := attemptFixture(t, 1, 1)
	loadQuestions(t, svc, test)

	_, err := svc.SubmitAttempt(student.ID, test.ID, answersFor(test, 1, 1))
	require.NoError(t, err)

	export, err := svc.ExportResults(teacher.ID, test.ID)
	require.NoError(t, err)
	assert.Equal(t, test.ID, export.TestID)
	assert.Equal(t, 2, export.Questions)
	require.Len(t, export.Results, 1)
	assert.Equal(t, student.Username, export.Results[0].Username)
	assert.Equal(t, 1.0, export.Results[0].Score)
}
