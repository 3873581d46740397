package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecomcore/orderflow/internal/auth"
	"github.com/ecomcore/orderflow/internal/httpx"
	"github.com/ecomcore/orderflow/internal/inventory"
	ord "github.com/ecomcore/orderflow/internal/order"
)

//
// ---------- STUBS & FAKES ----------
//

// stubRepo implements ord.Repository in memory.
type stubRepo struct {
	mu     sync.Mutex
	orders []ord.Order
	items  map[string][]ord.LineItem
}

func newStubRepo() *stubRepo { return &stubRepo{items: make(map[string][]ord.LineItem)} }

func (s *stubRepo) Create(ctx context.Context, o *ord.Order, items []ord.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, *o)
	s.items[o.ID] = append([]ord.LineItem(nil), items...)
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*ord.Order, []ord.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			cp := o
			return &cp, s.items[id], nil
		}
	}
	return nil, nil, ord.ErrNotFound
}

func (s *stubRepo) GetItems(ctx context.Context, orderID string) ([]ord.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[orderID], nil
}

func (s *stubRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ord.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ord.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) ListAll(ctx context.Context, limit, offset int) ([]ord.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ord.Order(nil), s.orders...), nil
}

// fakeVerifier maps bearer tokens to identities.
type fakeVerifier struct{ tokens map[string]auth.Identity }

func (f *fakeVerifier) Verify(ctx context.Context, credential string) (auth.Identity, error) {
	id, ok := f.tokens[credential]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidCredential
	}
	return id, nil
}

type stubUsers struct{}

func (stubUsers) Exists(ctx context.Context, userID string) (bool, error) { return true, nil }

type stubCart struct{}

func (stubCart) Clear(ctx context.Context, userID string) error { return nil }

type env struct {
	router *gin.Engine
	ledger *inventory.MemoryLedger
	repo   *stubRepo
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	ledger := inventory.NewMemoryLedger()
	repo := newStubRepo()
	coord := ord.NewCoordinator(ledger, repo, stubUsers{}, stubCart{}, zerolog.Nop(), nil)

	verifier := &fakeVerifier{tokens: map[string]auth.Identity{
		"tok-customer": {UserID: "u-customer", Role: auth.RoleCustomer},
		"tok-other":    {UserID: "u-other", Role: auth.RoleCustomer},
		"tok-admin":    {UserID: "u-admin", Role: auth.RoleAdmin},
	}}

	r := gin.New()
	authed := r.Group("/", httpx.Auth(verifier))
	authed.POST("/orders", createOrderHandler(coord))
	authed.GET("/orders", listOrdersHandler(repo))
	authed.GET("/orders/:id", getOrderHandler(repo))
	authed.GET("/orders/:id/items", getOrderItemsHandler(repo))

	return &env{router: r, ledger: ledger, repo: repo}
}

func (e *env) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

//
// ---------- TESTS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	prodID := uuid.NewString()
	e.ledger.SetProduct(prodID, "15.00", 5)

	body := fmt.Sprintf(`{"shipping_address":"calle 1","payment_method":"card","items":[{"product_id":%q,"quantity":2}]}`, prodID)
	w := e.do(t, http.MethodPost, "/orders", "tok-customer", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res ord.PlaceOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.Order.Status != ord.StatusCommitted || res.Order.Total != "30.00" {
		t.Fatalf("order=%+v", res.Order)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items=%+v", res.Items)
	}
	if e.ledger.Stock(prodID) != 3 {
		t.Fatalf("stock=%d, want 3", e.ledger.Stock(prodID))
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	prodID := uuid.NewString()
	e.ledger.SetProduct(prodID, "10.00", 1)

	body := fmt.Sprintf(`{"shipping_address":"calle 1","payment_method":"card","items":[{"product_id":%q,"quantity":2}]}`, prodID)
	w := e.do(t, http.MethodPost, "/orders", "tok-customer", body)

	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}
	var res struct {
		ProductID string `json:"product_id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.ProductID != prodID {
		t.Fatalf("error does not name the product: %s", w.Body.String())
	}
	if e.ledger.Stock(prodID) != 1 {
		t.Fatalf("stock=%d, want 1 untouched", e.ledger.Stock(prodID))
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	body := fmt.Sprintf(`{"shipping_address":"calle 1","payment_method":"card","items":[{"product_id":%q,"quantity":1}]}`, uuid.NewString())
	w := e.do(t, http.MethodPost, "/orders", "tok-customer", body)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (esperaba 404)", w.Code, w.Body.String())
	}
}

func TestCreateOrder_Malformed(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	cases := map[string]string{
		"bad json":   `{`,
		"no items":   `{"shipping_address":"a","payment_method":"card","items":[]}`,
		"zero qty":   `{"shipping_address":"a","payment_method":"card","items":[{"product_id":"p","quantity":0}]}`,
		"no address": `{"payment_method":"card","items":[{"product_id":"p","quantity":1}]}`,
		"no payment": `{"shipping_address":"a","items":[{"product_id":"p","quantity":1}]}`,
	}
	for name, body := range cases {
		w := e.do(t, http.MethodPost, "/orders", "tok-customer", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d body=%s (esperaba 400)", name, w.Code, w.Body.String())
		}
	}
}

func TestCreateOrder_Unauthenticated(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/orders", "", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d (esperaba 401)", w.Code)
	}
	w = e.do(t, http.MethodPost, "/orders", "tok-nope", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d (esperaba 401)", w.Code)
	}
}

func placeOne(t *testing.T, e *env, token, price string) string {
	t.Helper()
	prodID := uuid.NewString()
	e.ledger.SetProduct(prodID, price, 10)
	body := fmt.Sprintf(`{"shipping_address":"calle 1","payment_method":"card","items":[{"product_id":%q,"quantity":1}]}`, prodID)
	w := e.do(t, http.MethodPost, "/orders", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("seed order failed: %d %s", w.Code, w.Body.String())
	}
	var res ord.PlaceOrderResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	return res.Order.ID
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	orderID := placeOne(t, e, "tok-customer", "5.00")

	// Owner sees it.
	if w := e.do(t, http.MethodGet, "/orders/"+orderID, "tok-customer", ""); w.Code != http.StatusOK {
		t.Fatalf("owner: status=%d body=%s", w.Code, w.Body.String())
	}
	// Another customer gets 404, not 403: existence is not disclosed.
	if w := e.do(t, http.MethodGet, "/orders/"+orderID, "tok-other", ""); w.Code != http.StatusNotFound {
		t.Fatalf("other: status=%d body=%s", w.Code, w.Body.String())
	}
	// Admin bypasses the ownership filter.
	if w := e.do(t, http.MethodGet, "/orders/"+orderID, "tok-admin", ""); w.Code != http.StatusOK {
		t.Fatalf("admin: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/orders/"+uuid.NewString(), "tok-customer", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d (esperaba 404)", w.Code)
	}
}

func TestGetOrderItems_OK(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	orderID := placeOne(t, e, "tok-customer", "7.50")

	w := e.do(t, http.MethodGet, "/orders/"+orderID+"/items", "tok-customer", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var wrap struct {
		Items []ord.LineItem `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &wrap); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(wrap.Items) != 1 || wrap.Items[0].Price != "7.50" {
		t.Fatalf("items=%+v", wrap.Items)
	}
}

func TestListOrders_CustomerSeesOwnAdminSeesAll(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	placeOne(t, e, "tok-customer", "5.00")
	placeOne(t, e, "tok-other", "5.00")

	var wrap struct {
		Orders []ord.Order `json:"orders"`
	}

	w := e.do(t, http.MethodGet, "/orders", "tok-customer", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &wrap)
	if len(wrap.Orders) != 1 || wrap.Orders[0].UserID != "u-customer" {
		t.Fatalf("customer list=%+v", wrap.Orders)
	}

	w = e.do(t, http.MethodGet, "/orders", "tok-admin", "")
	_ = json.Unmarshal(w.Body.Bytes(), &wrap)
	if len(wrap.Orders) != 2 {
		t.Fatalf("admin list=%+v, want 2", wrap.Orders)
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}
