package customers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu        sync.RWMutex
	customers map[string]Customer
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{customers: make(map[string]Customer)}
}

func (r *MemoryRepo) Create(ctx context.Context, customer Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.customers {
		if strings.EqualFold(existing.Email, customer.Email) {
			return ErrEmailTaken
		}
	}
	r.customers[customer.ID] = customer
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, customerID string) (Customer, error) {
	if err := ctx.Err(); err != nil {
		return Customer{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.customers[customerID]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return customer, nil
}

func (r *MemoryRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, customer := range r.customers {
		if strings.EqualFold(customer.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Customer, 0, len(r.customers))
	for _, customer := range r.customers {
		out = append(out, customer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) SetActive(ctx context.Context, customerID string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	customer.IsActive = active
	customer.UpdatedAt = time.Now().UTC()
	r.customers[customerID] = customer
	return nil
}
