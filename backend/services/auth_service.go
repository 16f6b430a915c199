package services

import (
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"testplatform/backend/apperrors"
	"testplatform/backend/config"
	"testplatform/backend/models"
	"testplatform/backend/validation"
)

type AuthService struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *log.Logger
}

func NewAuthService(db *gorm.DB, cfg *config.Config, logger *log.Logger) *AuthService {
	return &AuthService{DB: db, Cfg: cfg, Log: logger}
}

// Register creates a user with a hashed credential. Username and email must
// be unique; the role is either teacher or student.
func (s *AuthService) Register(in validation.RegisterInput) (*models.User, error) {
	in, err := validation.Register(in)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, apperrors.Internal("could not query users", err)
	}
	if count > 0 {
		return nil, apperrors.Validation("username already exists", map[string]string{"Username": "already taken"})
	}
	if err := s.DB.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, apperrors.Internal("could not query users", err)
	}
	if count > 0 {
		return nil, apperrors.Validation("email already exists", map[string]string{"Email": "already taken"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.Cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.Internal("could not hash password", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, apperrors.Internal("could not create user", err)
	}

	s.Log.Printf("user registered username=%s role=%s", user.Username, user.Role)
	return &user, nil
}

// Login verifies the credential and returns the user. Unknown users,
// inactive users and wrong passwords all produce the same generic error.
func (s *AuthService) Login(username, password string) (*models.User, error) {
	username = validation.Sanitize(username)

	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.Log.Printf("login failed: unknown user username=%s", username)
			return nil, apperrors.Auth("invalid credentials")
		}
		return nil, apperrors.Internal("could not query users", err)
	}

	if !user.IsActive {
		s.Log.Printf("login failed: inactive user username=%s", username)
		return nil, apperrors.Auth("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.Log.Printf("login failed: wrong password username=%s", username)
		return nil, apperrors.Auth("invalid credentials")
	}

	// History is bookkeeping only, a failed insert must not block the login.
	if err := s.DB.Create(&models.LoginHistory{UserID: user.ID, LoginTime: time.Now()}).Error; err != nil {
		s.Log.Printf("could not record login history username=%s: %v", username, err)
	}

	s.Log.Printf("login success username=%s", username)
	return &user, nil
}

// Profile returns the user record for an authenticated id.
func (s *AuthService) Profile(userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("could not query users", err)
	}
	return &user, nil
}
