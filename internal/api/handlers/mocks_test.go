package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/politologod/vibes-marketplace/internal/auth"
	"github.com/politologod/vibes-marketplace/internal/models"
	"github.com/politologod/vibes-marketplace/internal/services"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// --- Mocks ---

// MockProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, vendedorID utils.SixID, product *models.Product) (*models.Product, error) {
	args := m.Called(ctx, vendedorID, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) FindProductByID(ctx context.Context, productID utils.SixID) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) ListProducts(ctx context.Context, params services.ListParams) ([]models.Product, services.Pagination, error) {
	args := m.Called(ctx, params)
	var products []models.Product
	if args.Get(0) != nil {
		products = args.Get(0).([]models.Product)
	}
	return products, args.Get(1).(services.Pagination), args.Error(2)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, productID, vendedorID utils.SixID, update services.ProductUpdate) (*models.Product, error) {
	args := m.Called(ctx, productID, vendedorID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, productID, vendedorID utils.SixID) error {
	args := m.Called(ctx, productID, vendedorID)
	return args.Error(0)
}

func (m *MockProductService) SearchProducts(ctx context.Context, params services.SearchParams) ([]models.Product, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductService) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductService) AddImagesToProduct(ctx context.Context, productID utils.SixID, urls []string) (*models.Product, error) {
	args := m.Called(ctx, productID, urls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) TouchProduct(ctx context.Context, productID utils.SixID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) FindUserByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindUserByCedula(ctx context.Context, cedula string) (*models.User, error) {
	args := m.Called(ctx, cedula)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, userID utils.SixID, update services.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, userID utils.SixID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) UpdateBankAccounts(ctx context.Context, userID utils.SixID, cuentas []models.CuentaBancaria) (*models.User, error) {
	args := m.Called(ctx, userID, cuentas)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdatePagoMovil(ctx context.Context, userID utils.SixID, pagoMovil models.PagoMovil) (*models.User, error) {
	args := m.Called(ctx, userID, pagoMovil)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) CorreoExists(ctx context.Context, correo string) (bool, error) {
	args := m.Called(ctx, correo)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) CedulaExists(ctx context.Context, cedula string) (bool, error) {
	args := m.Called(ctx, cedula)
	return args.Bool(0), args.Error(1)
}

// MockAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
