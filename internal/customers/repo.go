package customers

import "context"

type Repo interface {
	Create(ctx context.Context, customer Customer) error
	GetByID(ctx context.Context, customerID string) (Customer, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]Customer, error)
	SetActive(ctx context.Context, customerID string, active bool) error
}
