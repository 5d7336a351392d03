package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
)

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) FindByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *mockCustomerRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.Customer, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *mockCustomerRepo) ListVisibleVehicles(ctx context.Context, customer *model.Customer) ([]model.Vehicle, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Vehicle), args.Error(1)
}

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func strPtr(s string) *string { return &s }

func testCustomer(t *testing.T, status model.CustomerStatus) *model.Customer {
	t.Helper()
	secretHash := mustHash(t, "shared-secret")
	return &model.Customer{
		ID:                "c1",
		Name:              "João Silva",
		Email:             "joao@example.com",
		Document:          "12345678901",
		Phone:             "11999999999",
		Status:            status,
		PasswordHash:      mustHash(t, "s3nha,forte"),
		ChatbotSecretHash: &secretHash,
	}
}

func testVehicles() []model.Vehicle {
	return []model.Vehicle{
		{ID: "v1", CustomerID: "c1", Plate: strPtr("ABC1D23"), Model: strPtr("Onix"), Visible: true},
		{ID: "v2", CustomerID: "c1", Blocked: true, Visible: true},
	}
}

func TestAuthService_AuthenticateByPhone(t *testing.T) {
	ctx := context.Background()

	t.Run("active customer with matching secret", func(t *testing.T) {
		repo := new(mockCustomerRepo)
		customer := testCustomer(t, model.CustomerStatusActive)
		repo.On("FindByPhone", ctx, "11999999999").Return(customer, nil)
		repo.On("ListVisibleVehicles", ctx, customer).Return(testVehicles(), nil)

		identity, err := NewAuthService(repo).AuthenticateByPhone(ctx, "11999999999", "shared-secret")
		require.NoError(t, err)
		require.NotNil(t, identity)

		assert.Equal(t, "c1", identity.ID)
		assert.Equal(t, "João Silva", identity.Name)
		assert.False(t, identity.GreetingShown)
		require.Len(t, identity.Vehicles, 2)
		assert.Equal(t, model.VehicleRef{ID: "v1", Plate: "ABC1D23", Model: "Onix"}, identity.Vehicles[0])
		assert.Equal(t, model.VehicleRef{ID: "v2", Plate: "N/A", Model: "N/A", Blocked: true}, identity.Vehicles[1])
		repo.AssertExpectations(t)
	})

	rejections := []struct {
		name     string
		customer func(t *testing.T) *model.Customer
		secret   string
	}{
		{"unknown phone", func(*testing.T) *model.Customer { return nil }, "shared-secret"},
		{"inactive customer", func(t *testing.T) *model.Customer { return testCustomer(t, model.CustomerStatusInactive) }, "shared-secret"},
		{"wrong secret", func(t *testing.T) *model.Customer { return testCustomer(t, model.CustomerStatusActive) }, "other-secret"},
		{"chatbot not enabled", func(t *testing.T) *model.Customer {
			c := testCustomer(t, model.CustomerStatusActive)
			c.ChatbotSecretHash = nil
			return c
		}, "shared-secret"},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockCustomerRepo)
			customer := tt.customer(t)
			if customer == nil {
				repo.On("FindByPhone", ctx, "11999999999").Return(nil, nil)
			} else {
				repo.On("FindByPhone", ctx, "11999999999").Return(customer, nil)
			}

			identity, err := NewAuthService(repo).AuthenticateByPhone(ctx, "11999999999", tt.secret)
			assert.NoError(t, err)
			assert.Nil(t, identity)
			repo.AssertNotCalled(t, "ListVisibleVehicles", mock.Anything, mock.Anything)
		})
	}

	t.Run("database error is transient", func(t *testing.T) {
		repo := new(mockCustomerRepo)
		repo.On("FindByPhone", ctx, "11999999999").Return(nil, errors.New("connection refused"))

		identity, err := NewAuthService(repo).AuthenticateByPhone(ctx, "11999999999", "shared-secret")
		assert.Nil(t, identity)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
	})
}

func TestAuthService_AuthenticateByCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("password containing a comma", func(t *testing.T) {
		repo := new(mockCustomerRepo)
		customer := testCustomer(t, model.CustomerStatusActive)
		repo.On("FindByIdentifier", ctx, "123.456.789-01").Return(customer, nil)
		repo.On("ListVisibleVehicles", ctx, customer).Return(testVehicles(), nil)

		identity, err := NewAuthService(repo).AuthenticateByCredentials(ctx, "123.456.789-01", "s3nha,forte")
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Len(t, identity.Vehicles, 2)
	})

	t.Run("no visible vehicles still returns identity", func(t *testing.T) {
		repo := new(mockCustomerRepo)
		customer := testCustomer(t, model.CustomerStatusActive)
		repo.On("FindByIdentifier", ctx, "joao@example.com").Return(customer, nil)
		repo.On("ListVisibleVehicles", ctx, customer).Return([]model.Vehicle{}, nil)

		identity, err := NewAuthService(repo).AuthenticateByCredentials(ctx, "joao@example.com", "s3nha,forte")
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Empty(t, identity.Vehicles)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(mockCustomerRepo)
		repo.On("FindByIdentifier", ctx, "joao@example.com").Return(testCustomer(t, model.CustomerStatusActive), nil)

		identity, err := NewAuthService(repo).AuthenticateByCredentials(ctx, "joao@example.com", "errada")
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("inactive customer", func(t *testing.T) {
		repo := new(mockCustomerRepo)
		repo.On("FindByIdentifier", ctx, "joao@example.com").Return(testCustomer(t, model.CustomerStatusInactive), nil)

		identity, err := NewAuthService(repo).AuthenticateByCredentials(ctx, "joao@example.com", "s3nha,forte")
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		repo := new(mockCustomerRepo)
		repo.On("FindByIdentifier", ctx, "nobody").Return(nil, nil)

		identity, err := NewAuthService(repo).AuthenticateByCredentials(ctx, "nobody", "x")
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("vehicle lookup failure is transient", func(t *testing.T) {
		repo := new(mockCustomerRepo)
		customer := testCustomer(t, model.CustomerStatusActive)
		repo.On("FindByIdentifier", ctx, "joao@example.com").Return(customer, nil)
		repo.On("ListVisibleVehicles", ctx, customer).Return(nil, errors.New("timeout"))

		identity, err := NewAuthService(repo).AuthenticateByCredentials(ctx, "joao@example.com", "s3nha,forte")
		assert.Nil(t, identity)
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
	})
}
