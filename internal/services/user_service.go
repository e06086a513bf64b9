package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/politologod/vibes-marketplace/internal/apperr"
	"github.com/politologod/vibes-marketplace/internal/db"
	"github.com/politologod/vibes-marketplace/internal/models"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// ErrCedulaExists is returned when an attempt is made to use a cedula that is
// already registered.
var ErrCedulaExists = apperr.New(apperr.Conflict, "La cédula ya está registrada")

// ErrCorreoExists is returned when an attempt is made to use an email that is
// already registered.
var ErrCorreoExists = apperr.New(apperr.Conflict, "El correo ya está registrado")

// UserUpdate carries the mutable profile fields for a partial update.
// Identity fields (cedula, correo) are immutable once registered.
type UserUpdate struct {
	NombreCompleto    *string `json:"nombreCompleto"`
	NumeroTelefono    *string `json:"numeroTelefono"`
	Direccion         *string `json:"direccion"`
	Edad              *int    `json:"edad"`
	CorreoBinanceUSDT *string `json:"correoBinanceUSDT"`
	Foto              *string `json:"foto"`
}

// IUserService defines the interface for profile-related operations.
type IUserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	FindUserByID(ctx context.Context, userID utils.SixID) (*models.User, error)
	FindUserByCedula(ctx context.Context, cedula string) (*models.User, error)
	UpdateUser(ctx context.Context, userID utils.SixID, update UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, userID utils.SixID) error
	UpdateBankAccounts(ctx context.Context, userID utils.SixID, cuentas []models.CuentaBancaria) (*models.User, error)
	UpdatePagoMovil(ctx context.Context, userID utils.SixID, pagoMovil models.PagoMovil) (*models.User, error)
	CorreoExists(ctx context.Context, correo string) (bool, error)
	CedulaExists(ctx context.Context, cedula string) (bool, error)
}

const usersCollection = "users"

// userService implements IUserService.
type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database) IUserService {
	return &userService{db: db}
}

// CreateUser persists a new profile, enforcing cedula/correo uniqueness.
func (s *userService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()
	user.FechaCreacion = now
	user.FechaActualizacion = now
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, err
	}

	collection := s.db.Collection(usersCollection)

	// Pre-check before inserting; the unique indexes stay as the backstop
	// against races.
	count, err := collection.CountDocuments(ctx, bson.M{"cedula": user.Cedula})
	if err != nil {
		return nil, fmt.Errorf("error checking cedula uniqueness: %w", err)
	}
	if count > 0 {
		return nil, ErrCedulaExists
	}
	count, err = collection.CountDocuments(ctx, bson.M{"correo": user.Correo})
	if err != nil {
		return nil, fmt.Errorf("error checking correo uniqueness: %w", err)
	}
	if count > 0 {
		return nil, ErrCorreoExists
	}

	operation := func() error {
		user.ID = utils.NewSixID()
		_, insertErr := collection.InsertOne(ctx, user)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "cedula") {
				return nil, ErrCedulaExists
			}
			return nil, ErrCorreoExists
		}
		return nil, fmt.Errorf("error inserting new user %s after multiple retries: %w", user.Cedula, err)
	}

	return user, nil
}

// ListUsers returns all profiles, newest first.
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	collection := s.db.Collection(usersCollection)
	opts := options.Find().SetSort(bson.D{{Key: "fechaCreacion", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// FindUserByID finds a profile by its ID.
// Returns mongo.ErrNoDocuments when not found.
func (s *userService) FindUserByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID.String(), err)
	}
	return &user, nil
}

// FindUserByCedula finds a profile by its legal identifier.
func (s *userService) FindUserByCedula(ctx context.Context, cedula string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"cedula": strings.TrimSpace(cedula)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by cedula %s: %w", cedula, err)
	}
	return &user, nil
}

// UpdateUser merges the provided fields onto the stored profile and re-runs
// the validators.
func (s *userService) UpdateUser(ctx context.Context, userID utils.SixID, update UserUpdate) (*models.User, error) {
	collection := s.db.Collection(usersCollection)

	var user models.User
	if err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user %s for update: %w", userID.String(), err)
	}

	if update.NombreCompleto != nil {
		user.NombreCompleto = *update.NombreCompleto
	}
	if update.NumeroTelefono != nil {
		user.NumeroTelefono = *update.NumeroTelefono
	}
	if update.Direccion != nil {
		user.Direccion = *update.Direccion
	}
	if update.Edad != nil {
		user.Edad = *update.Edad
	}
	if update.CorreoBinanceUSDT != nil {
		user.CorreoBinanceUSDT = *update.CorreoBinanceUSDT
	}
	if update.Foto != nil {
		user.Foto = *update.Foto
	}

	user.FechaActualizacion = time.Now().UTC()
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, err
	}

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": userID}, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID.String(), err)
	}
	if result.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &user, nil
}

// DeleteUser removes a profile.
func (s *userService) DeleteUser(ctx context.Context, userID utils.SixID) error {
	collection := s.db.Collection(usersCollection)
	result, err := collection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID.String(), err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateBankAccounts replaces the profile's bank account list.
func (s *userService) UpdateBankAccounts(ctx context.Context, userID utils.SixID, cuentas []models.CuentaBancaria) (*models.User, error) {
	for _, cuenta := range cuentas {
		if err := cuenta.Validate(); err != nil {
			return nil, err
		}
	}
	return s.setField(ctx, userID, "cuentasBancarias", cuentas)
}

// UpdatePagoMovil replaces the profile's mobile-payment descriptor.
func (s *userService) UpdatePagoMovil(ctx context.Context, userID utils.SixID, pagoMovil models.PagoMovil) (*models.User, error) {
	if err := pagoMovil.Validate(); err != nil {
		return nil, err
	}
	return s.setField(ctx, userID, "pagoMovil", pagoMovil)
}

// CorreoExists reports whether a profile with this email exists.
func (s *userService) CorreoExists(ctx context.Context, correo string) (bool, error) {
	count, err := s.db.Collection(usersCollection).CountDocuments(ctx,
		bson.M{"correo": strings.ToLower(strings.TrimSpace(correo))})
	if err != nil {
		return false, fmt.Errorf("error checking correo existence: %w", err)
	}
	return count > 0, nil
}

// CedulaExists reports whether a profile with this cedula exists.
func (s *userService) CedulaExists(ctx context.Context, cedula string) (bool, error) {
	count, err := s.db.Collection(usersCollection).CountDocuments(ctx,
		bson.M{"cedula": strings.TrimSpace(cedula)})
	if err != nil {
		return false, fmt.Errorf("error checking cedula existence: %w", err)
	}
	return count > 0, nil
}

func (s *userService) setField(ctx context.Context, userID utils.SixID, field string, value interface{}) (*models.User, error) {
	collection := s.db.Collection(usersCollection)
	update := bson.M{"$set": bson.M{
		field:                value,
		"fechaActualizacion": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.User
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update %s for user %s: %w", field, userID.String(), err)
	}
	return &updated, nil
}
