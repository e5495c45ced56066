package domain

import "context"

// Transactor runs fn in a single storage transaction. Repository calls made with the
// ctx passed to fn join that transaction. fn returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
