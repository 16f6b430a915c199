package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"testplatform/backend/apperrors"
)

func validQuestion() QuestionInput {
	return QuestionInput{
		Prompt:        "What is the capital of France?",
		Options:       []string{"Paris", "London", "Berlin", "Madrid"},
		CorrectAnswer: 0,
		Explanation:   "Paris is the capital of France.",
		TopicTag:      "geography",
		Difficulty:    "easy",
	}
}

func TestQuestionValid(t *testing.T) {
	in, err := Question(validQuestion())
	assert.NoError(t, err)
	assert.Equal(t, "What is the capital of France?", in.Prompt)
}

func TestQuestionEmptyPrompt(t *testing.T) {
	q := validQuestion()
	q.Prompt = "   "
	_, err := Question(q)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Contains(t, apperrors.FieldsOf(err), "Prompt")
}

func TestQuestionOptionCount(t *testing.T) {
	q := validQuestion()
	q.Options = []string{"Paris", "London", "Berlin"}
	_, err := Question(q)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Contains(t, apperrors.FieldsOf(err), "Options")

	q = validQuestion()
	q.Options = append(q.Options, "Rome")
	_, err = Question(q)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestQuestionDuplicateOptions(t *testing.T) {
	q := validQuestion()
	q.Options = []string{"Paris", "Paris", "Berlin", "Madrid"}
	_, err := Question(q)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Equal(t, "options must be distinct", apperrors.FieldsOf(err)["Options"])
}

func TestQuestionEmptyOption(t *testing.T) {
	q := validQuestion()
	q.Options[2] = "  "
	_, err := Question(q)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestQuestionCorrectIndexRange(t *testing.T) {
	for _, idx := range []int{-1, 4, 10} {
		q := validQuestion()
		q.CorrectAnswer = idx
		_, err := Question(q)
		assert.Error(t, err, "index %d must be rejected", idx)
	}
	for idx := 0; idx <= 3; idx++ {
		q := validQuestion()
		q.CorrectAnswer = idx
		_, err := Question(q)
		assert.NoError(t, err, "index %d must be accepted", idx)
	}
}

func TestQuestionDifficulty(t *testing.T) {
	q := validQuestion()
	q.Difficulty = "extreme"
	_, err := Question(q)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestQuestionPromptLengthBound(t *testing.T) {
	q := validQuestion()
	q.Prompt = strings.Repeat("a", 2001)
	_, err := Question(q)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestRegisterValid(t *testing.T) {
	in, err := Register(RegisterInput{
		Username: "teacher_1",
		Email:    "teacher@example.com",
		Password: "Secret123",
		Role:     "teacher",
	})
	assert.NoError(t, err)
	assert.Equal(t, "teacher_1", in.Username)
}

func TestRegisterUsernameShape(t *testing.T) {
	for _, name := range []string{"ab", "has space", "bad-dash", strings.Repeat("a", 51)} {
		_, err := Register(RegisterInput{Username: name, Email: "a@b.co", Password: "Secret123", Role: "student"})
		assert.Error(t, err, "username %q must be rejected", name)
	}
}

func TestRegisterPasswordPolicy(t *testing.T) {
	cases := []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"}
	for _, pwd := range cases {
		_, err := Register(RegisterInput{Username: "student1", Email: "s@example.com", Password: pwd, Role: "student"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "password %q must be rejected", pwd)
		assert.Contains(t, apperrors.FieldsOf(err), "Password")
	}
}

func TestRegisterRole(t *testing.T) {
	_, err := Register(RegisterInput{Username: "someone", Email: "x@example.com", Password: "Secret123", Role: "admin"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Contains(t, apperrors.FieldsOf(err), "Role")
}

func TestAccessKeyShape(t *testing.T) {
	key, err := AccessKey("  ab12cd34 ")
	assert.NoError(t, err)
	assert.Equal(t, "AB12CD34", key)

	for _, bad := range []string{"", "SHORT", "TOOLONGKEY", "ABCD-123", "abcd123!"} {
		_, err := AccessKey(bad)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "key %q must be rejected", bad)
	}
}

func TestSanitizeStripsControlChars(t *testing.T) {
	assert.Equal(t, "hello world", Sanitize("  hello\x00 world\x1f\t"))
}
