// Package tx defines the transaction boundary used by domain services,
// keeping them independent of the concrete database driver.
package tx

import "context"

// Manager runs a function inside a database transaction.
//
// A nested call reuses the transaction already carried by ctx, so a
// service method can compose repository calls and other service methods
// into one atomic unit. The postgres implementation lives in
// infrastructure/storage/postgres.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back
	// otherwise.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for multi-query reads
// that need a consistent snapshot without taking write locks.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
