// Package customer holds customer accounts and their address book.
// Account lifecycle (registration, login, passwords) lives outside this
// service; customers exist here as identities that API keys resolve to.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested customer does not exist.
	ErrNotFound = errors.New("customer not found")
	// ErrAddressNotFound is returned when an address does not exist or
	// does not belong to the requesting customer.
	ErrAddressNotFound = errors.New("address not found")
)

// Customer is a storefront account identity.
type Customer struct {
	ID        int64
	Email     string
	FullName  string
	CreatedAt time.Time
}

// Address is an entry in a customer's address book.
type Address struct {
	ID          int64
	CustomerID  int64
	FullName    string
	PhoneNumber string
	AddressLine string
	City        string
	Region      string
	Country     string
	IsDefault   bool
	CreatedAt   time.Time
}

// Repository defines persistence operations for customers and addresses.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Customer, error)
	// GetAddress fetches an address only if it belongs to the customer.
	GetAddress(ctx context.Context, customerID, addressID int64) (*Address, error)
	ListAddresses(ctx context.Context, customerID int64) ([]Address, error)
	CreateAddress(ctx context.Context, a *Address) error
}
