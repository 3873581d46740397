package inventory

import (
	"context"
	"fmt"
	"sync"
)

// MemoryLedger keeps stock in memory with the same semantics as PGLedger.
// Used by tests and local runs without Postgres.
type MemoryLedger struct {
	mu       sync.Mutex
	products map[string]*memProduct

	failReserve error
	failRelease error
}

type memProduct struct {
	price string
	stock int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{products: make(map[string]*memProduct)}
}

// SetProduct seeds or overwrites a product row.
func (l *MemoryLedger) SetProduct(productID, price string, stock int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.products[productID] = &memProduct{price: price, stock: stock}
}

// Stock reports current stock, 0 for unknown products.
func (l *MemoryLedger) Stock(productID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[productID]
	if !ok {
		return 0
	}
	return p.stock
}

// FailNext makes subsequent Reserve or Release calls return err until reset
// with nil. Fault injection for compensation tests.
func (l *MemoryLedger) FailNext(reserve, release error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failReserve = reserve
	l.failRelease = release
}

func (l *MemoryLedger) Reserve(ctx context.Context, productID string, qty int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failReserve != nil {
		return "", l.failReserve
	}
	p, ok := l.products[productID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	if p.stock < qty {
		return "", fmt.Errorf("%w: %s", ErrInsufficientStock, productID)
	}
	p.stock -= qty
	return p.price, nil
}

func (l *MemoryLedger) Release(ctx context.Context, productID string, qty int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failRelease != nil {
		return l.failRelease
	}
	p, ok := l.products[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	p.stock += qty
	return nil
}
