package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/politologod/vibes-marketplace/internal/apperr"
	"github.com/politologod/vibes-marketplace/internal/auth"
	"github.com/politologod/vibes-marketplace/internal/config"
	"github.com/politologod/vibes-marketplace/internal/db"
	"github.com/politologod/vibes-marketplace/internal/models"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// ErrEmailExists is returned when the registration email already has a
// credential record.
var ErrEmailExists = apperr.New(apperr.Conflict, "El correo ya está registrado")

// ErrInvalidCredentials is returned for unknown emails, inactive credentials
// and password mismatches alike.
var ErrInvalidCredentials = apperr.New(apperr.Unauthenticated, "Credenciales inválidas")

// RegisterInput carries everything needed to create a credential record and
// its profile in one step.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Profile  models.User
}

// Session is the result of a successful register, login or verify.
type Session struct {
	Token string          `json:"token"`
	User  models.AuthUser `json:"user"`
}

// IAuthService defines the interface for credential operations.
type IAuthService interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, claims *auth.Claims) (*models.User, error)
}

const authsCollection = "auths"

// authService implements IAuthService.
type authService struct {
	db    *mongo.Database
	cfg   *config.Config
	users IUserService
}

// NewAuthService creates a new AuthService.
func NewAuthService(database *mongo.Database, cfg *config.Config, users IUserService) IAuthService {
	return &authService{db: database, cfg: cfg, users: users}
}

// Register creates the profile and the credential record. The two inserts are
// not transactional; if the credential insert fails the freshly created
// profile is deleted so a retry with the same cedula can succeed.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperr.New(apperr.Validation, "El correo es obligatorio")
	}
	if len(input.Password) < 6 {
		return nil, apperr.New(apperr.Validation, "La contraseña debe tener al menos 6 caracteres")
	}

	collection := s.db.Collection(authsCollection)
	count, err := collection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("error checking email uniqueness: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	profile := input.Profile
	if profile.Correo == "" {
		profile.Correo = email
	}
	if profile.Edad == 0 {
		profile.Edad = 18
	}

	user, err := s.users.CreateUser(ctx, &profile)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		s.rollbackProfile(ctx, user.ID)
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	now := time.Now().UTC()
	record := models.Auth{
		Email:        email,
		PasswordHash: hash,
		UserID:       user.ID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	operation := func() error {
		record.ID = utils.NewSixID()
		_, insertErr := collection.InsertOne(ctx, &record)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		s.rollbackProfile(ctx, user.ID)
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error inserting credentials for %s after multiple retries: %w", email, err)
	}

	token, err := auth.GenerateJWT(user.ID, record.ID, email, s.cfg.JwtSecret, s.cfg.JwtTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}

	return &Session{Token: token, User: user.AuthView()}, nil
}

// Login checks the password against the stored hash and issues a fresh token.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	collection := s.db.Collection(authsCollection)

	var record models.Auth
	err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding credentials for %s: %w", email, err)
	}

	if !record.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(password, record.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Credentials without a profile should not be able to log in.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	_, err = collection.UpdateOne(ctx, bson.M{"_id": record.ID},
		bson.M{"$set": bson.M{"lastLogin": now, "updatedAt": now}})
	if err != nil {
		// A failed stamp does not invalidate the login.
		log.Printf("WARN: failed to stamp lastLogin for %s: %v", email, err)
	}

	token, err := auth.GenerateJWT(user.ID, record.ID, email, s.cfg.JwtSecret, s.cfg.JwtTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}

	return &Session{Token: token, User: user.AuthView()}, nil
}

// Verify resolves already-validated claims to the current profile.
func (s *authService) Verify(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	userID, err := utils.ParseSixID(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.Unauthenticated, "Token inválido")
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.Unauthenticated, "Token inválido")
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) rollbackProfile(ctx context.Context, userID utils.SixID) {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		log.Printf("WARN: failed to roll back profile %s after registration error: %v", userID.String(), err)
	}
}
