package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each command attempt.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary. Order and courier
// writes made through its repositories commit or roll back together.
type UnitOfWork interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	Commit(ctx context.Context) error

	// Rollback discards the current transaction. Deferred calls after Commit
	// return an error that callers ignore.
	Rollback(ctx context.Context) error

	// CourierRepository returns a repository bound to the current transaction.
	CourierRepository() CourierRepository

	// OrderRepository returns a repository bound to the current transaction.
	OrderRepository() OrderRepository
}
