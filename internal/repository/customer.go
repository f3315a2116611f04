package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bruce101github/crochethairbygg/internal/domain/customer"
)

const (
	getCustomerByIDSQL = `SELECT id, email, full_name, created_at
		FROM customers WHERE id = $1`

	addressColumns = `id, customer_id, full_name, phone_number, address_line,
		city, region, country, is_default, created_at`

	getAddressSQL = `SELECT ` + addressColumns + `
		FROM addresses WHERE id = $1 AND customer_id = $2`

	listAddressesSQL = `SELECT ` + addressColumns + `
		FROM addresses WHERE customer_id = $1 ORDER BY is_default DESC, created_at DESC`

	createAddressSQL = `INSERT INTO addresses
		(customer_id, full_name, phone_number, address_line, city, region, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	clearDefaultAddressSQL = `UPDATE addresses SET is_default = FALSE WHERE customer_id = $1`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID fetches a customer. Returns customer.ErrNotFound for unknown ids.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	var c customer.Customer
	err := r.pool.QueryRow(ctx, getCustomerByIDSQL, id).
		Scan(&c.ID, &c.Email, &c.FullName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

// GetAddress fetches an address scoped to its owner. Addresses belonging to
// other customers are indistinguishable from missing ones.
func (r *CustomerRepository) GetAddress(ctx context.Context, customerID, addressID int64) (*customer.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, addressID, customerID)
	if err != nil {
		return nil, fmt.Errorf("getting address %d: %w", addressID, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrAddressNotFound
		}
		return nil, fmt.Errorf("getting address %d: %w", addressID, err)
	}
	return &a, nil
}

// ListAddresses returns the customer's address book, default entry first.
func (r *CustomerRepository) ListAddresses(ctx context.Context, customerID int64) ([]customer.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses for customer %d: %w", customerID, err)
	}

	addrs, err := pgx.CollectRows(rows, scanAddress)
	if err != nil {
		return nil, fmt.Errorf("listing addresses for customer %d: %w", customerID, err)
	}
	return addrs, nil
}

// CreateAddress inserts a new address book entry. A new default address
// demotes the previous default inside the same transaction.
func (r *CustomerRepository) CreateAddress(ctx context.Context, a *customer.Address) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating address: %w", err)
	}
	defer tx.Rollback(ctx)

	if a.IsDefault {
		if _, err := tx.Exec(ctx, clearDefaultAddressSQL, a.CustomerID); err != nil {
			return fmt.Errorf("clearing default address: %w", err)
		}
	}

	err = tx.QueryRow(ctx, createAddressSQL,
		a.CustomerID, a.FullName, a.PhoneNumber, a.AddressLine,
		a.City, a.Region, a.Country, a.IsDefault,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("creating address: %w", err)
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (customer.Address, error) {
	var a customer.Address
	err := row.Scan(
		&a.ID, &a.CustomerID, &a.FullName, &a.PhoneNumber, &a.AddressLine,
		&a.City, &a.Region, &a.Country, &a.IsDefault, &a.CreatedAt,
	)
	return a, err
}
