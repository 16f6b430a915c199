package models

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one student's scored submission for one test. The composite
// unique index makes a second scored attempt for the same pair lose on commit.
type Attempt struct {
	gorm.Model
	TestID      uint    `gorm:"not null;uniqueIndex:ix_attempts_student_test"`
	StudentID   uint    `gorm:"not null;uniqueIndex:ix_attempts_student_test"`
	Score       float64 `gorm:"not null"` // fraction in [0,1]
	CompletedAt time.Time
	Answers     []Answer `gorm:"constraint:OnDelete:CASCADE"`
}

type Answer struct {
	gorm.Model
	AttemptID  uint `gorm:"index;not null"`
	QuestionID uint `gorm:"index;not null"`
	Selected   int  `gorm:"not null"` // 0-3 index
}
