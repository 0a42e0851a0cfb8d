package tenant

import "time"

type Plan string

const (
	PlanStarter      Plan = "STARTER"
	PlanProfessional Plan = "PROFESSIONAL"
	PlanEnterprise   Plan = "ENTERPRISE"
)

// DefaultDepositPercent applies to tenants that never configured their own rate.
const DefaultDepositPercent = 30

type Tenant struct {
	ID                   int       `db:"id" json:"id"`
	Slug                 string    `db:"slug" json:"slug"`
	Name                 string    `db:"name" json:"name"`
	Plan                 Plan      `db:"plan" json:"plan"`
	DepositPercent       int       `db:"deposit_percent" json:"deposit_percent"`
	PrimaryColor         string    `db:"primary_color" json:"primary_color"`
	SecondaryColor       string    `db:"secondary_color" json:"secondary_color"`
	StripeCustomerID     *string   `db:"stripe_customer_id" json:"-"`
	StripeSubscriptionID *string   `db:"stripe_subscription_id" json:"-"`
	Active               bool      `db:"active" json:"active"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

type CreateTenantRequest struct {
	Slug           string `json:"slug" binding:"required,min=3,max=40"`
	Name           string `json:"name" binding:"required"`
	Plan           string `json:"plan" binding:"required"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

type UpdateBrandingRequest struct {
	Name           string `json:"name"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	DepositPercent *int   `json:"deposit_percent" binding:"omitempty,min=0,max=100"`
}
