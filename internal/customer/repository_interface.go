package customer

import "context"

type Repository interface {
	Upsert(ctx context.Context, tenantID int, email, name, phone string) (*Customer, error)
	GetByID(ctx context.Context, tenantID, id int) (*Customer, error)
	List(ctx context.Context, tenantID int) ([]Customer, error)
	Count(ctx context.Context, tenantID int) (int, error)
}
