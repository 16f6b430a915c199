// Package validation turns raw request input into validated records or
// field-level error maps. It is pure: no database access, no side effects.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"testplatform/backend/apperrors"
	"testplatform/backend/models"
)

var validate = validator.New()

var (
	usernameRe  = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)
	accessKeyRe = regexp.MustCompile(`^[A-Z0-9]{8}$`)
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=teacher student"`
}

type TestInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	TestType    string `json:"test_type" validate:"required,oneof=pre post"`
}

type QuestionInput struct {
	Prompt        string   `json:"prompt" validate:"required,max=2000"`
	Options       []string `json:"options" validate:"required,len=4,dive,required,max=255"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0,max=3"`
	Explanation   string   `json:"explanation" validate:"max=1000"`
	TopicTag      string   `json:"topic_tag" validate:"max=120"`
	Difficulty    string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

// Register validates and normalizes a registration request.
func Register(in RegisterInput) (RegisterInput, error) {
	in.Username = Sanitize(in.Username)
	in.Email = Sanitize(in.Email)

	fields := collect(validate.Struct(in))
	if _, ok := fields["Username"]; !ok && !usernameRe.MatchString(in.Username) {
		fields["Username"] = "must be 3-50 characters, letters, digits or underscore"
	}
	if _, ok := fields["Password"]; !ok {
		if msg := passwordMessage(in.Password); msg != "" {
			fields["Password"] = msg
		}
	}
	if len(fields) > 0 {
		return RegisterInput{}, apperrors.Validation("invalid registration data", fields)
	}
	return in, nil
}

// Test validates and normalizes test metadata.
func Test(in TestInput) (TestInput, error) {
	in.Title = Sanitize(in.Title)
	in.Description = Sanitize(in.Description)

	fields := collect(validate.Struct(in))
	if len(fields) > 0 {
		return TestInput{}, apperrors.Validation("invalid test data", fields)
	}
	return in, nil
}

// Question validates and normalizes a candidate question, whether typed in by
// a teacher or produced by the generator. Cross-field rules the tag validator
// cannot express (option distinctness) are checked explicitly.
func Question(in QuestionInput) (QuestionInput, error) {
	in.Prompt = Sanitize(in.Prompt)
	in.Explanation = Sanitize(in.Explanation)
	in.TopicTag = Sanitize(in.TopicTag)
	for i := range in.Options {
		in.Options[i] = Sanitize(in.Options[i])
	}

	fields := collect(validate.Struct(in))
	if _, ok := fields["Options"]; !ok && len(in.Options) == models.OptionCount {
		seen := make(map[string]bool, models.OptionCount)
		for _, opt := range in.Options {
			if seen[opt] {
				fields["Options"] = "options must be distinct"
				break
			}
			seen[opt] = true
		}
	}
	if len(fields) > 0 {
		return QuestionInput{}, apperrors.Validation("invalid question data", fields)
	}
	return in, nil
}

// AccessKey normalizes a user-entered access key and checks its shape.
func AccessKey(key string) (string, error) {
	key = strings.ToUpper(Sanitize(key))
	if !accessKeyRe.MatchString(key) {
		return "", apperrors.Validation("invalid access key", map[string]string{
			"AccessKey": fmt.Sprintf("must be exactly %d characters, A-Z or 0-9", models.AccessKeyLength),
		})
	}
	return key, nil
}

// Sanitize trims surrounding whitespace and strips control characters.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

func passwordMessage(password string) string {
	if len(password) < 8 {
		return "must be at least 8 characters"
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return "must include an uppercase letter, a lowercase letter and a digit"
	}
	return ""
}

// collect flattens validator errors into a field -> message map. It always
// returns a usable map so callers can add their own entries.
func collect(err error) map[string]string {
	fields := make(map[string]string)
	if err == nil {
		return fields
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		fields[fe.Field()] = messageFor(fe)
	}
	return fields
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have exactly %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
