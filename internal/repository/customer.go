package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/RodrigoCastroMoura/trackerbot/internal/database"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
)

type CustomerRepository interface {
	FindByPhone(ctx context.Context, phone string) (*model.Customer, error)
	// FindByIdentifier matches email, then document, then phone.
	FindByIdentifier(ctx context.Context, identifier string) (*model.Customer, error)
	ListVisibleVehicles(ctx context.Context, customer *model.Customer) ([]model.Vehicle, error)
}

type customerRepo struct {
	db database.DBTX
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, name, email, document, phone, status, password_hash,
	chatbot_secret_hash, company_id, created_at, updated_at`

// findOneBy returns the oldest customer matching where, which must use $1.
func (r *customerRepo) findOneBy(ctx context.Context, where string, arg string) (*model.Customer, error) {
	return getOne[model.Customer](ctx, r.db, `
		SELECT `+customerColumns+` FROM customers
		WHERE `+where+`
		ORDER BY created_at
		LIMIT 1
	`, arg)
}

func (r *customerRepo) FindByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	return r.findOneBy(ctx, "phone = $1", phone)
}

func (r *customerRepo) findByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return r.findOneBy(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *customerRepo) findByDocument(ctx context.Context, document string) (*model.Customer, error) {
	return r.findOneBy(ctx, "document = $1", document)
}

func (r *customerRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.Customer, error) {
	lookups := []func(context.Context, string) (*model.Customer, error){
		r.findByEmail,
		r.findByDocument,
		r.FindByPhone,
	}
	for _, find := range lookups {
		customer, err := find(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if customer != nil {
			return customer, nil
		}
	}
	return nil, nil
}

func (r *customerRepo) ListVisibleVehicles(ctx context.Context, customer *model.Customer) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := r.db.SelectContext(ctx, &vehicles, `
		SELECT id, customer_id, plate, model, blocked, visible FROM vehicles
		WHERE customer_id = $1
		AND visible = TRUE
		AND company_id IS NOT DISTINCT FROM $2
		ORDER BY plate
	`, customer.ID, customer.CompanyID)
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}
