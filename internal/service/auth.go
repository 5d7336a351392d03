package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/audit"
	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/repository"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

// AuthService resolves chat senders to customers stored in Postgres.
// Rejections return nil, nil; database failures return an error.
type AuthService struct {
	customers repository.CustomerRepository
}

func NewAuthService(customers repository.CustomerRepository) *AuthService {
	return &AuthService{customers: customers}
}

// AuthenticateByPhone signs in a customer whose phone matches the sender and
// who enabled the chatbot with the deployment's shared secret.
func (s *AuthService) AuthenticateByPhone(ctx context.Context, phone, sharedSecret string) (*model.Identity, error) {
	customer, err := s.customers.FindByPhone(ctx, phone)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	switch {
	case customer == nil:
		s.reject(ctx, audit.EventPhoneAuthFailure, phone, "", "not_found")
		return nil, nil
	case !customer.IsActive():
		s.reject(ctx, audit.EventPhoneAuthFailure, phone, customer.ID, "inactive")
		return nil, nil
	case customer.ChatbotSecretHash == nil || !util.CheckPasswordHash(sharedSecret, *customer.ChatbotSecretHash):
		s.reject(ctx, audit.EventPhoneAuthFailure, phone, customer.ID, "secret_mismatch")
		return nil, nil
	}

	identity, err := s.identity(ctx, customer)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:       audit.EventPhoneAuthSuccess,
		Phone:      util.MaskPhone(phone),
		CustomerID: customer.ID,
		Details:    map[string]interface{}{"vehicles": len(identity.Vehicles)},
	})
	return identity, nil
}

// AuthenticateByCredentials matches the identifier against email, document
// and phone, then checks the password.
func (s *AuthService) AuthenticateByCredentials(ctx context.Context, identifier, password string) (*model.Identity, error) {
	customer, err := s.customers.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	switch {
	case customer == nil:
		s.reject(ctx, audit.EventCredentialAuthFailure, "", "", "not_found")
		return nil, nil
	case !util.CheckPasswordHash(password, customer.PasswordHash):
		s.reject(ctx, audit.EventCredentialAuthFailure, "", customer.ID, "bad_password")
		return nil, nil
	case !customer.IsActive():
		s.reject(ctx, audit.EventCredentialAuthFailure, "", customer.ID, "inactive")
		return nil, nil
	}

	identity, err := s.identity(ctx, customer)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:       audit.EventCredentialAuthSuccess,
		CustomerID: customer.ID,
		Details:    map[string]interface{}{"vehicles": len(identity.Vehicles)},
	})
	return identity, nil
}

func (s *AuthService) identity(ctx context.Context, customer *model.Customer) (*model.Identity, error) {
	vehicles, err := s.customers.ListVisibleVehicles(ctx, customer)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customer.ID).Msg("failed to load vehicles")
		return nil, apperrors.Database(err)
	}

	refs := make([]model.VehicleRef, 0, len(vehicles))
	for _, v := range vehicles {
		refs = append(refs, v.Ref())
	}

	return &model.Identity{
		ID:       customer.ID,
		Name:     customer.Name,
		Email:    customer.Email,
		Vehicles: refs,
	}, nil
}

func (s *AuthService) reject(ctx context.Context, event audit.EventType, phone, customerID, reason string) {
	e := audit.Event{
		Type:       event,
		CustomerID: customerID,
		Details:    map[string]interface{}{"reason": reason},
	}
	if phone != "" {
		e.Phone = util.MaskPhone(phone)
	}
	audit.Log(ctx, e)
}
