package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/politologod/vibes-marketplace/internal/apperr"
	"github.com/politologod/vibes-marketplace/internal/auth"
	"github.com/politologod/vibes-marketplace/internal/config"
	"github.com/politologod/vibes-marketplace/internal/models"
)

func authTestConfig() *config.Config {
	return &config.Config{
		JwtSecret: "test-secret",
		JwtTTL:    7 * 24 * time.Hour,
	}
}

func validRegisterInput(email, cedula string) RegisterInput {
	return RegisterInput{
		Email:    email,
		Password: "secreto123",
		Profile: models.User{
			Cedula:         cedula,
			NombreCompleto: "Pedro Gómez",
			NumeroTelefono: "04161234567",
			Direccion:      "Calle 5, Valencia",
			Edad:           25,
		},
	}
}

func TestAuthService_RegisterIssuesDecodableToken(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_auth_service_register")
	cfg := authTestConfig()
	users := NewUserService(database)
	svc := NewAuthService(database, cfg, users)
	ctx := context.Background()

	session, err := svc.Register(ctx, validRegisterInput("Pedro@Example.com", "V-10000001"))
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "pedro@example.com", session.User.Email)

	claims, err := auth.ValidateJWT(session.Token, cfg.JwtSecret)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID.String(), claims.UserID)
	assert.Equal(t, "pedro@example.com", claims.Email)
	assert.NotEmpty(t, claims.AuthID)

	// Profile email defaults to the registration email.
	profile, err := users.FindUserByID(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "pedro@example.com", profile.Correo)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_auth_service_conflicts")
	users := NewUserService(database)
	svc := NewAuthService(database, authTestConfig(), users)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput("primero@example.com", "V-10000002"))
	require.NoError(t, err)

	// Same email, different cedula.
	_, err = svc.Register(ctx, validRegisterInput("primero@example.com", "V-10000003"))
	assert.ErrorIs(t, err, ErrCorreoExists)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	// Same cedula, different email.
	_, err = svc.Register(ctx, validRegisterInput("segundo@example.com", "V-10000002"))
	assert.ErrorIs(t, err, ErrCedulaExists)

	// The failed attempts must not leave partial records behind.
	userCount, err := database.Collection("users").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), userCount)
	authCount, err := database.Collection("auths").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), authCount)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_auth_service_validation")
	users := NewUserService(database)
	svc := NewAuthService(database, authTestConfig(), users)
	ctx := context.Background()

	input := validRegisterInput("corto@example.com", "V-10000004")
	input.Password = "abc"
	_, err := svc.Register(ctx, input)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	input = validRegisterInput("", "V-10000005")
	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestAuthService_LoginStampsLastLogin(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_auth_service_login")
	users := NewUserService(database)
	svc := NewAuthService(database, authTestConfig(), users)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegisterInput("login@example.com", "V-10000006"))
	require.NoError(t, err)

	session, err := svc.Login(ctx, "LOGIN@example.com", "secreto123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, registered.User.ID, session.User.ID)

	var record models.Auth
	err = database.Collection("auths").FindOne(ctx, bson.M{"email": "login@example.com"}).Decode(&record)
	require.NoError(t, err)
	require.NotNil(t, record.LastLogin)
}

func TestAuthService_LoginFailures(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_auth_service_loginfail")
	users := NewUserService(database)
	svc := NewAuthService(database, authTestConfig(), users)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput("fallas@example.com", "V-10000007"))
	require.NoError(t, err)

	// Unknown email.
	_, err = svc.Login(ctx, "desconocido@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	// Wrong password, and no last-login stamp for the attempt.
	_, err = svc.Login(ctx, "fallas@example.com", "equivocada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var record models.Auth
	err = database.Collection("auths").FindOne(ctx, bson.M{"email": "fallas@example.com"}).Decode(&record)
	require.NoError(t, err)
	assert.Nil(t, record.LastLogin)

	// Deactivated credentials.
	_, err = database.Collection("auths").UpdateOne(ctx,
		bson.M{"email": "fallas@example.com"},
		bson.M{"$set": bson.M{"isActive": false}})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "fallas@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Verify(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_auth_service_verify")
	cfg := authTestConfig()
	users := NewUserService(database)
	svc := NewAuthService(database, cfg, users)
	ctx := context.Background()

	session, err := svc.Register(ctx, validRegisterInput("verify@example.com", "V-10000008"))
	require.NoError(t, err)

	claims, err := auth.ValidateJWT(session.Token, cfg.JwtSecret)
	require.NoError(t, err)

	user, err := svc.Verify(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)

	// Claims pointing at a deleted profile fail closed.
	require.NoError(t, users.DeleteUser(ctx, user.ID))
	_, err = svc.Verify(ctx, claims)
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	_, err = svc.Verify(ctx, &auth.Claims{UserID: "not-an-id"})
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}
