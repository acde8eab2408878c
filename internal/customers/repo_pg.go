package customers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type PGRepo struct {
	DB *sql.DB
}

const customerColumns = `id, name, email, phone, targeted_amount, current_amount, is_active,
       created_by, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, customer Customer) error {
	const query = `
INSERT INTO customers (id, name, email, phone, targeted_amount, current_amount, is_active, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.TargetedAmount,
		customer.CurrentAmount,
		customer.IsActive,
		customer.CreatedBy,
		customer.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, customerID string) (Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 LIMIT 1`
	var customer Customer
	err := r.DB.QueryRowContext(ctx, query, customerID).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.TargetedAmount,
		&customer.CurrentAmount,
		&customer.IsActive,
		&customer.CreatedBy,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	return customer, nil
}

func (r *PGRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM customers WHERE lower(email) = lower($1))`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		var customer Customer
		if err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.TargetedAmount,
			&customer.CurrentAmount,
			&customer.IsActive,
			&customer.CreatedBy,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, customer)
	}
	return out, rows.Err()
}

func (r *PGRepo) SetActive(ctx context.Context, customerID string, active bool) error {
	const query = `UPDATE customers SET is_active = $2, updated_at = now() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, customerID, active)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
