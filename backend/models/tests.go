package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

const (
	TestStateDraft     = "draft"
	TestStatePublished = "published"

	TestTypePre  = "pre"
	TestTypePost = "post"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

// AccessKeyLength is the length of the opaque token issued at publish time.
const AccessKeyLength = 8

type Test struct {
	gorm.Model
	Title       string     `gorm:"size:255;not null;index"`
	Description string     `gorm:"size:1000"`
	TestType    string     `gorm:"size:10;not null"` // pre, post
	TeacherID   uint       `gorm:"index;not null"`
	State       string     `gorm:"size:12;not null;default:draft"`
	Questions   []Question `gorm:"constraint:OnDelete:CASCADE"`
	Attempts    []Attempt  `gorm:"constraint:OnDelete:CASCADE"`
	AccessKey   *AccessKey `gorm:"constraint:OnDelete:CASCADE"`
}

func (t *Test) IsPublished() bool {
	return t.State == TestStatePublished
}

// AccessKey binds one opaque token to one published test.
type AccessKey struct {
	gorm.Model
	TestID uint   `gorm:"uniqueIndex;not null"`
	Key    string `gorm:"size:8;uniqueIndex;not null"`
}

type Question struct {
	gorm.Model
	TestID        uint   `gorm:"index:ix_questions_test_order;not null"`
	Prompt        string `gorm:"size:2000;not null"`
	Options       string `gorm:"not null"` // JSON array of exactly four option strings
	CorrectAnswer int    `gorm:"not null"` // 0-3 index
	Explanation   string `gorm:"size:1000"`
	TopicTag      string `gorm:"size:120;index"`
	Difficulty    string `gorm:"size:10;not null"` // easy, medium, hard
	SequenceOrder int    `gorm:"index:ix_questions_test_order;not null"`
}

// OptionList decodes the stored JSON options column.
func (q *Question) OptionList() ([]string, error) {
	var options []string
	if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
		return nil, err
	}
	return options, nil
}

// SetOptions encodes options into the JSON column.
func (q *Question) SetOptions(options []string) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.Options = string(data)
	return nil
}
