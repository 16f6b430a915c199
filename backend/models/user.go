package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type User struct {
	gorm.Model
	Username     string `gorm:"size:50;unique;not null"`
	Email        string `gorm:"size:120;unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:20;not null"` // teacher, student
	IsActive     bool   `gorm:"default:true"`
}

type LoginHistory struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	LoginTime time.Time
}
