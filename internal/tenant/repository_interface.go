package tenant

import "context"

type Repository interface {
	Create(ctx context.Context, slug, name string, plan Plan, primaryColor, secondaryColor string) (*Tenant, error)
	GetByID(ctx context.Context, id int) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	UpdateBranding(ctx context.Context, id int, name, primaryColor, secondaryColor string, depositPercent *int) (*Tenant, error)
	UpdatePlan(ctx context.Context, id int, plan Plan) error
	SetStripeRefs(ctx context.Context, id int, customerID, subscriptionID string) error
	SetActive(ctx context.Context, id int, active bool) error
}
