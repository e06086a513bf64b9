package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/politologod/vibes-marketplace/internal/utils"
)

const testSecret = "unit-test-secret"

func TestGenerateAndValidateJWT(t *testing.T) {
	userID := utils.NewSixID()
	authID := utils.NewSixID()

	token, err := GenerateJWT(userID, authID, "ana@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, authID.String(), claims.AuthID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(utils.NewSixID(), utils.NewSixID(), "ana@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "otro-secreto")
	assert.Error(t, err)
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(utils.NewSixID(), utils.NewSixID(), "ana@example.com", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not.a.jwt", testSecret)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secreta123")
	require.NoError(t, err)
	assert.NotEqual(t, "secreta123", hash)

	assert.True(t, CheckPasswordHash("secreta123", hash))
	assert.False(t, CheckPasswordHash("incorrecta", hash))
}
