package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/asset-registry/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrConflict marks a unit of work aborted by a serialization failure or
	// deadlock. The whole unit may be retried.
	ErrConflict = errors.New("transaction conflict")
	// ErrDuplicateEmail is a unique violation on users.email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateAssetTag is a unique violation on items.asset_tag.
	ErrDuplicateAssetTag = errors.New("asset tag already in use")
)

// ListOptions bounds list queries. A zero Limit returns every row.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, opts ListOptions) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// ItemRepository defines persistence access for assets.
type ItemRepository interface {
	// InsertShell stores item without tag or QR code and assigns its id.
	InsertShell(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context, opts ListOptions) ([]domain.Item, error)
	Delete(ctx context.Context, id int64) error
	// TagExists reports whether another item, other than excludeID, holds tag.
	TagExists(ctx context.Context, tag string, excludeID int64) (bool, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Users UserRepository
	Items ItemRepository
}

// Store is the persistence collaborator used by services.
type Store interface {
	Repositories() Repositories
	// InTx runs fn as one unit of work. Everything fn writes through the
	// given repositories commits together, or nothing does when fn fails.
	InTx(ctx context.Context, fn func(Repositories) error) error
	Ping(ctx context.Context) error
}
