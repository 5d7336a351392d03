package model

import "time"

type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

type Customer struct {
	ID                string         `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Email             string         `db:"email" json:"email"`
	Document          string         `db:"document" json:"document"`
	Phone             string         `db:"phone" json:"phone"`
	Status            CustomerStatus `db:"status" json:"status"`
	PasswordHash      string         `db:"password_hash" json:"-"`
	ChatbotSecretHash *string        `db:"chatbot_secret_hash" json:"-"`
	CompanyID         *string        `db:"company_id" json:"companyId,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

type Vehicle struct {
	ID         string  `db:"id" json:"id"`
	CustomerID string  `db:"customer_id" json:"customerId"`
	Plate      *string `db:"plate" json:"plate,omitempty"`
	Model      *string `db:"model" json:"model,omitempty"`
	Blocked    bool    `db:"blocked" json:"blocked"`
	Visible    bool    `db:"visible" json:"visible"`
}

// Ref converts a stored vehicle into the lightweight reference kept in a
// chat session.
func (v Vehicle) Ref() VehicleRef {
	ref := VehicleRef{ID: v.ID, Plate: "N/A", Model: "N/A", Blocked: v.Blocked}
	if v.Plate != nil && *v.Plate != "" {
		ref.Plate = *v.Plate
	}
	if v.Model != nil && *v.Model != "" {
		ref.Model = *v.Model
	}
	return ref
}
