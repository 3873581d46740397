package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ecomcore/orderflow/internal/inventory"
	"github.com/ecomcore/orderflow/internal/observability"
)

var tracer = otel.Tracer("orderflow/order")

// grant records one successful reservation awaiting its terminal outcome:
// consumed by the committed order or released by compensation, never both,
// never neither.
type grant struct {
	productID string
	quantity  int
	price     string
}

// Coordinator runs the placement saga: reserve stock per line item, persist
// the order, compensate on any failure, clear the cart after commit.
type Coordinator struct {
	ledger  inventory.Ledger
	repo    Repository
	users   UserDirectory
	cart    CartService
	log     zerolog.Logger
	metrics *observability.Metrics

	// PersistTimeout bounds the PERSISTING phase; exceeding it aborts the
	// placement and triggers full compensation.
	PersistTimeout time.Duration
}

func NewCoordinator(ledger inventory.Ledger, repo Repository, users UserDirectory, cart CartService, log zerolog.Logger, metrics *observability.Metrics) *Coordinator {
	return &Coordinator{
		ledger:         ledger,
		repo:           repo,
		users:          users,
		cart:           cart,
		log:            log,
		metrics:        metrics,
		PersistTimeout: 5 * time.Second,
	}
}

// PlaceOrder converts a cart of requested items into a committed order. A
// failed run leaves zero order rows and restores every reserved unit of
// stock; the caller never observes a half-placed order.
func (c *Coordinator) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := tracer.Start(ctx, "coordinator.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int("items", len(req.Items)))

	if err := validatePlacement(userID, req); err != nil {
		c.metrics.Placement("rejected")
		return nil, err
	}

	ok, err := c.users.Exists(ctx, userID)
	if err != nil {
		c.metrics.Placement("rejected")
		return nil, fmt.Errorf("user directory: %w", err)
	}
	if !ok {
		c.metrics.Placement("rejected")
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	// Fixed ascending reservation order bounds contention when concurrent
	// placements touch overlapping product sets, and makes the compensation
	// list deterministic. Duplicate product ids are merged first so each
	// product maps to at most one reservation.
	items := mergeItems(req.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	granted := make([]grant, 0, len(items))
	for _, it := range items {
		price, err := c.ledger.Reserve(ctx, it.ProductID, it.Quantity)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reservation failed")
			c.metrics.Placement("denied")
			cause := err
			if errors.Is(err, inventory.ErrNotFound) || errors.Is(err, inventory.ErrInsufficientStock) {
				cause = &ProductError{ProductID: it.ProductID, Err: err}
			}
			return nil, c.compensate(ctx, granted, cause)
		}
		granted = append(granted, grant{productID: it.ProductID, quantity: it.Quantity, price: price})
	}

	o, lineItems, err := buildOrder(userID, req, granted)
	if err != nil {
		c.metrics.Placement("failed")
		return nil, c.compensate(ctx, granted, err)
	}

	persistCtx, cancel := context.WithTimeout(ctx, c.PersistTimeout)
	err = c.repo.Create(persistCtx, o, lineItems)
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		c.metrics.Placement("failed")
		if !errors.Is(err, ErrPersistence) {
			err = fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil, c.compensate(ctx, granted, err)
	}

	// The order is committed; cart clearing is best-effort and its failure
	// must not roll anything back.
	if err := c.cart.Clear(ctx, userID); err != nil {
		c.metrics.CartClearFailure()
		c.log.Warn().Err(err).Str("user_id", userID).Str("order_id", o.ID).
			Msg("cart clear failed after commit; cart left as-is")
	}

	c.metrics.Placement("committed")
	c.log.Info().Str("order_id", o.ID).Str("user_id", userID).
		Str("total", o.Total).Int("items", len(lineItems)).
		Msg("order committed")
	return &PlaceOrderResponse{Order: *o, Items: lineItems}, nil
}

// compensate releases every granted reservation, newest first, exactly once
// each. It runs on a context detached from the request so a dead caller
// cannot strand a release. The returned error is cause itself when every
// release succeeded, or a CompensationError listing the stock that is now
// under-counted.
func (c *Coordinator) compensate(ctx context.Context, granted []grant, cause error) error {
	if len(granted) == 0 {
		return cause
	}
	ctx, span := tracer.Start(ctx, "coordinator.Compensate")
	defer span.End()

	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var failed []FailedRelease
	for i := len(granted) - 1; i >= 0; i-- {
		g := granted[i]
		if err := c.ledger.Release(relCtx, g.productID, g.quantity); err != nil {
			span.RecordError(err)
			failed = append(failed, FailedRelease{ProductID: g.productID, Quantity: g.quantity, Err: err})
		}
	}
	if len(failed) == 0 {
		return cause
	}

	span.SetStatus(codes.Error, "compensation failed")
	c.metrics.CompensationFailure(len(failed))
	for _, f := range failed {
		c.log.Error().Err(f.Err).
			Str("product_id", f.ProductID).
			Int("quantity", f.Quantity).
			Msg("stock release failed; inventory under-counted, manual reconciliation required")
	}
	return &CompensationError{Cause: cause, Failed: failed}
}

func validatePlacement(userID string, req PlaceOrderRequest) error {
	if userID == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	if req.ShippingAddress == "" {
		return &ValidationError{Field: "shipping_address", Reason: "required"}
	}
	if req.PaymentMethod == "" {
		return &ValidationError{Field: "payment_method", Reason: "required"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "must not be empty"}
	}
	for _, it := range req.Items {
		if it.ProductID == "" {
			return &ValidationError{Field: "items.product_id", Reason: "required"}
		}
		if it.Quantity <= 0 {
			return &ValidationError{Field: "items.quantity", Reason: "must be a positive integer"}
		}
	}
	return nil
}

func mergeItems(items []PlaceOrderItem) []PlaceOrderItem {
	byProduct := make(map[string]int, len(items))
	for _, it := range items {
		byProduct[it.ProductID] += it.Quantity
	}
	out := make([]PlaceOrderItem, 0, len(byProduct))
	for id, qty := range byProduct {
		out = append(out, PlaceOrderItem{ProductID: id, Quantity: qty})
	}
	return out
}

// buildOrder totals the price snapshots captured during reservation; a
// catalog price change mid-placement cannot alter the committed total.
func buildOrder(userID string, req PlaceOrderRequest, granted []grant) (*Order, []LineItem, error) {
	orderID := uuid.NewString()
	total := decimal.Zero
	items := make([]LineItem, 0, len(granted))
	for _, g := range granted {
		price, err := decimal.NewFromString(g.price)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bad price snapshot %q for %s", ErrPersistence, g.price, g.productID)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(g.quantity))))
		items = append(items, LineItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: g.productID,
			Quantity:  g.quantity,
			Price:     price.StringFixed(2),
		})
	}
	o := &Order{
		ID:              orderID,
		UserID:          userID,
		Status:          StatusCommitted,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Total:           total.StringFixed(2),
		CreatedAt:       time.Now().UTC(),
	}
	return o, items, nil
}
