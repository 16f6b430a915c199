package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"testplatform/backend/apperrors"
	"testplatform/backend/config"
	"testplatform/backend/models"
	"testplatform/backend/validation"
)

func authFixture(t *testing.T) *AuthService {
	t.Helper()
	db := openTestDB(t)
	// Low cost keeps the hashing fast in tests
	cfg := &config.Config{BcryptCost: bcrypt.MinCost}
	return NewAuthService(db, cfg, testLogger())
}

func registerInput(username string) validation.RegisterInput {
	return validation.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Secret123",
		Role:     models.RoleStudent,
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := authFixture(t)

	user, err := svc.Register(registerInput("student1"))
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Secret123")))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := authFixture(t)

	_, err := svc.Register(registerInput("student1"))
	require.NoError(t, err)

	in := registerInput("student1")
	in.Email = "different@example.com"
	_, err = svc.Register(in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Contains(t, apperrors.FieldsOf(err), "Username")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := authFixture(t)

	_, err := svc.Register(registerInput("student1"))
	require.NoError(t, err)

	in := registerInput("student2")
	in.Email = "student1@example.com"
	_, err = svc.Register(in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Contains(t, apperrors.FieldsOf(err), "Email")
}

func TestLoginSuccessRecordsHistory(t *testing.T) {
	svc := authFixture(t)
	registered, err := svc.Register(registerInput("student1"))
	require.NoError(t, err)

	user, err := svc.Login("student1", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	var history int64
	svc.DB.Model(&models.LoginHistory{}).Where("user_id = ?", user.ID).Count(&history)
	assert.EqualValues(t, 1, history)
}

func TestLoginSurvivesHistoryWriteFailure(t *testing.T) {
	svc := authFixture(t)
	registered, err := svc.Register(registerInput("student1"))
	require.NoError(t, err)

	// Make the history insert fail; the login itself must still succeed.
	require.NoError(t, svc.DB.Migrator().DropTable(&models.LoginHistory{}))

	user, err := svc.Login("student1", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestLoginGenericRejection(t *testing.T) {
	svc := authFixture(t)
	_, err := svc.Register(registerInput("student1"))
	require.NoError(t, err)

	// Unknown user and wrong password produce the identical error
	_, unknownErr := svc.Login("nobody", "Secret123")
	_, wrongErr := svc.Login("student1", "WrongPass1")
	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.True(t, apperrors.IsKind(unknownErr, apperrors.KindAuth))
	assert.True(t, apperrors.IsKind(wrongErr, apperrors.KindAuth))
}

func TestLoginInactiveUser(t *testing.T) {
	svc := authFixture(t)
	user, err := svc.Register(registerInput("student1"))
	require.NoError(t, err)

	svc.DB.Model(user).Update("is_active", false)

	_, err = svc.Login("student1", "Secret123")
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuth))
}
