package services

import (
	"io"
	"log"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"testplatform/backend/models"
	"testplatform/backend/validation"
)

// openTestDB creates a fresh in-memory database per test. The pool is capped
// at one connection so every query sees the same memory store.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
		&models.Test{},
		&models.AccessKey{},
		&models.Question{},
		&models.Attempt{},
		&models.Answer{},
	))
	return db
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func createUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func questionInput(prompt string, correct int) validation.QuestionInput {
	return validation.QuestionInput{
		Prompt:        prompt,
		Options:       []string{"alpha", "beta", "gamma", "delta"},
		CorrectAnswer: correct,
		Difficulty:    "medium",
	}
}

// buildPublishedTest creates a teacher-owned test with the given correct
// indices and publishes it.
func buildPublishedTest(t *testing.T, svc *TestService, teacherID uint, correct ...int) *models.Test {
	t.Helper()
	test, err := svc.CreateTest(teacherID, validation.TestInput{Title: "Unit 1", TestType: "pre"})
	require.NoError(t, err)
	for i, c := range correct {
		_, err := svc.AddQuestion(teacherID, test.ID, questionInput("Question number "+string(rune('A'+i)), c))
		require.NoError(t, err)
	}
	published, err := svc.PublishTest(teacherID, test.ID)
	require.NoError(t, err)
	return published
}
