package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	usersEmailConstraint    = "users_email_key"
	itemsAssetTagConstraint = "items_asset_tag_key"

	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txBeginner is the subset of *pgxpool.Pool the store depends on.
type txBeginner interface {
	querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type postgresStore struct {
	pool txBeginner
}

// NewPostgresStore returns a Store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Repositories() Repositories {
	return bind(s.pool)
}

func (s *postgresStore) InTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return translatePgError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(bind(tx)); err != nil {
		return translatePgError(err)
	}
	return translatePgError(tx.Commit(ctx))
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func bind(q querier) Repositories {
	return Repositories{
		Users: &userRepository{db: q},
		Items: &itemRepository{db: q},
	}
}

// translatePgError maps driver errors onto the repository sentinels.
// Errors it does not recognise are returned unchanged.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	case sqlStateUniqueViolation:
		switch pgErr.ConstraintName {
		case usersEmailConstraint:
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, pgErr.Detail)
		case itemsAssetTagConstraint:
			return fmt.Errorf("%w: %s", ErrDuplicateAssetTag, pgErr.Detail)
		}
	}
	return err
}
