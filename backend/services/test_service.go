package services

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"

	"gorm.io/gorm"

	"testplatform/backend/apperrors"
	"testplatform/backend/models"
	"testplatform/backend/validation"
)

const accessKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type TestService struct {
	DB  *gorm.DB
	Log *log.Logger
}

func NewTestService(db *gorm.DB, logger *log.Logger) *TestService {
	return &TestService{DB: db, Log: logger}
}

// CreateTest creates a draft test owned by the teacher. No access key exists
// until the test is published.
func (s *TestService) CreateTest(teacherID uint, in validation.TestInput) (*models.Test, error) {
	in, err := validation.Test(in)
	if err != nil {
		return nil, err
	}

	test := models.Test{
		Title:       in.Title,
		Description: in.Description,
		TestType:    in.TestType,
		TeacherID:   teacherID,
		State:       models.TestStateDraft,
	}
	if err := s.DB.Create(&test).Error; err != nil {
		return nil, apperrors.Internal("could not create test", err)
	}

	s.Log.Printf("test created id=%d teacher_id=%d title=%q", test.ID, teacherID, test.Title)
	return &test, nil
}

// ListTeacherTests returns the teacher's tests, newest first.
func (s *TestService) ListTeacherTests(teacherID uint) ([]models.Test, error) {
	var tests []models.Test
	err := s.DB.Preload("Questions").Preload("AccessKey").
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&tests).Error
	if err != nil {
		return nil, apperrors.Internal("could not query tests", err)
	}
	return tests, nil
}

// GetTeacherTest loads one of the teacher's tests with its questions.
func (s *TestService) GetTeacherTest(teacherID, testID uint) (*models.Test, error) {
	return s.ownedTest(s.DB, teacherID, testID, true)
}

// UpdateTestMetadata edits title, description or type of a draft test.
func (s *TestService) UpdateTestMetadata(teacherID, testID uint, in validation.TestInput) (*models.Test, error) {
	in, err := validation.Test(in)
	if err != nil {
		return nil, err
	}

	test, err := s.ownedTest(s.DB, teacherID, testID, false)
	if err != nil {
		return nil, err
	}
	if test.IsPublished() {
		return nil, apperrors.State("cannot edit a published test")
	}

	test.Title = in.Title
	test.Description = in.Description
	test.TestType = in.TestType
	if err := s.DB.Save(test).Error; err != nil {
		return nil, apperrors.Internal("could not update test", err)
	}

	s.Log.Printf("test updated id=%d", testID)
	return test, nil
}

// DeleteTest removes a test together with its questions, attempts and key.
func (s *TestService) DeleteTest(teacherID, testID uint) error {
	test, err := s.ownedTest(s.DB, teacherID, testID, false)
	if err != nil {
		return err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_id = ?", test.ID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", test.ID).Delete(&models.AccessKey{}).Error; err != nil {
			return err
		}
		var attemptIDs []uint
		if err := tx.Model(&models.Attempt{}).Where("test_id = ?", test.ID).Pluck("id", &attemptIDs).Error; err != nil {
			return err
		}
		if len(attemptIDs) > 0 {
			if err := tx.Where("attempt_id IN ?", attemptIDs).Delete(&models.Answer{}).Error; err != nil {
				return err
			}
			if err := tx.Where("test_id = ?", test.ID).Delete(&models.Attempt{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(test).Error
	})
	if err != nil {
		return apperrors.Internal("could not delete test", err)
	}

	s.Log.Printf("test deleted id=%d", testID)
	return nil
}

// AddQuestion appends a validated question to a draft test.
func (s *TestService) AddQuestion(teacherID, testID uint, in validation.QuestionInput) (*models.Question, error) {
	in, err := validation.Question(in)
	if err != nil {
		return nil, err
	}

	test, err := s.ownedTest(s.DB, teacherID, testID, false)
	if err != nil {
		return nil, err
	}
	if test.IsPublished() {
		return nil, apperrors.State("cannot add questions to a published test")
	}

	var count int64
	if err := s.DB.Model(&models.Question{}).Where("test_id = ?", test.ID).Count(&count).Error; err != nil {
		return nil, apperrors.Internal("could not query questions", err)
	}

	question := models.Question{
		TestID:        test.ID,
		Prompt:        in.Prompt,
		CorrectAnswer: in.CorrectAnswer,
		Explanation:   in.Explanation,
		TopicTag:      in.TopicTag,
		Difficulty:    in.Difficulty,
		SequenceOrder: int(count) + 1,
	}
	if err := question.SetOptions(in.Options); err != nil {
		return nil, apperrors.Internal("could not encode options", err)
	}
	if err := s.DB.Create(&question).Error; err != nil {
		return nil, apperrors.Internal("could not create question", err)
	}

	s.Log.Printf("question added test_id=%d question_id=%d", test.ID, question.ID)
	return &question, nil
}

// DeleteQuestion removes a question from a draft test.
func (s *TestService) DeleteQuestion(teacherID, testID, questionID uint) error {
	test, err := s.ownedTest(s.DB, teacherID, testID, false)
	if err != nil {
		return err
	}
	if test.IsPublished() {
		return apperrors.State("cannot remove questions from a published test")
	}

	res := s.DB.Where("test_id = ?", test.ID).Delete(&models.Question{}, questionID)
	if res.Error != nil {
		return apperrors.Internal("could not delete question", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("question not found")
	}

	s.Log.Printf("question deleted test_id=%d question_id=%d", test.ID, questionID)
	return nil
}

// PublishTest transitions a draft test with at least one question to the
// published state and issues its access key. The transition happens once.
func (s *TestService) PublishTest(teacherID, testID uint) (*models.Test, error) {
	var published *models.Test
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		test, err := s.ownedTest(tx, teacherID, testID, false)
		if err != nil {
			return err
		}
		if test.IsPublished() {
			return apperrors.State("test is already published")
		}

		var count int64
		if err := tx.Model(&models.Question{}).Where("test_id = ?", test.ID).Count(&count).Error; err != nil {
			return apperrors.Internal("could not query questions", err)
		}
		if count == 0 {
			return apperrors.State("cannot publish a test without questions")
		}

		key, err := generateAccessKey(models.AccessKeyLength)
		if err != nil {
			return apperrors.Internal("could not generate access key", err)
		}
		accessKey := models.AccessKey{TestID: test.ID, Key: key}
		if err := tx.Create(&accessKey).Error; err != nil {
			return apperrors.Internal("could not store access key", err)
		}

		test.State = models.TestStatePublished
		if err := tx.Save(test).Error; err != nil {
			return apperrors.Internal("could not publish test", err)
		}

		test.AccessKey = &accessKey
		published = test
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Printf("test published id=%d key=%s", testID, published.AccessKey.Key)
	return published, nil
}

// GetTestByAccessKey resolves a published test from its opaque key.
func (s *TestService) GetTestByAccessKey(key string) (*models.Test, error) {
	key, err := validation.AccessKey(key)
	if err != nil {
		return nil, err
	}

	var accessKey models.AccessKey
	if err := s.DB.Where("key = ?", key).First(&accessKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no test for this access key")
		}
		return nil, apperrors.Internal("could not query access keys", err)
	}

	var test models.Test
	err = s.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).First(&test, accessKey.TestID).Error
	if err != nil {
		return nil, apperrors.Internal("could not query tests", err)
	}
	if !test.IsPublished() {
		return nil, apperrors.NotFound("no test for this access key")
	}
	test.AccessKey = &accessKey
	return &test, nil
}

// ownedTest loads a test and hides its existence from non-owners.
func (s *TestService) ownedTest(db *gorm.DB, teacherID, testID uint, withQuestions bool) (*models.Test, error) {
	query := db.Preload("AccessKey")
	if withQuestions {
		query = query.Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		})
	}

	var test models.Test
	if err := query.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("test not found")
		}
		return nil, apperrors.Internal("could not query tests", err)
	}
	if test.TeacherID != teacherID {
		return nil, apperrors.NotFound("test not found")
	}
	return &test, nil
}

func generateAccessKey(length int) (string, error) {
	key := make([]byte, length)
	max := big.NewInt(int64(len(accessKeyAlphabet)))
	for i := range key {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		key[i] = accessKeyAlphabet[n.Int64()]
	}
	return string(key), nil
}
