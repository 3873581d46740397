// Package inventory owns stock accounting. Product stock is mutated only
// through a Ledger; nothing else in the codebase writes the stock column.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStoreUnavailable wraps transient store failures; callers may retry.
	ErrStoreUnavailable = errors.New("inventory store unavailable")
)

// Ledger reserves and releases product stock. Reserve returns the unit price
// captured in the same atomic statement that claims the stock, so the price
// snapshot can never diverge from the reservation. A successful Reserve must
// be matched by at most one Release; the caller keeps that bookkeeping.
type Ledger interface {
	Reserve(ctx context.Context, productID string, qty int) (priceSnapshot string, err error)
	Release(ctx context.Context, productID string, qty int) error
}

type PGLedger struct{ db *pgxpool.Pool }

func NewPGLedger(db *pgxpool.Pool) *PGLedger { return &PGLedger{db: db} }

// Reserve claims qty units via a single conditional update. Two concurrent
// reservations against the same row can never both succeed past available
// stock because Postgres serializes conflicting writes to one row.
func (l *PGLedger) Reserve(ctx context.Context, productID string, qty int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var price string
	err := l.db.QueryRow(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING price::text
	`, productID, qty).Scan(&price)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: reserve %s: %v", ErrStoreUnavailable, productID, err)
	}

	// Zero rows matched: either the product is gone or stock ran short.
	var exists bool
	if probeErr := l.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID,
	).Scan(&exists); probeErr != nil {
		return "", fmt.Errorf("%w: probe %s: %v", ErrStoreUnavailable, productID, probeErr)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	return "", fmt.Errorf("%w: %s", ErrInsufficientStock, productID)
}

// Release is the unconditional compensating increment.
func (l *PGLedger) Release(ctx context.Context, productID string, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := l.db.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("%w: release %s: %v", ErrStoreUnavailable, productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	return nil
}
