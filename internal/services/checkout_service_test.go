package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"artventure/internal/domain"
	"artventure/internal/payments"
	"artventure/internal/repos"
	"artventure/internal/services"
)

// memdb opens a fresh in-memory store with the full schema and the demo
// seed (bracelet 29.99 x10, necklace 64.50 x5, earrings 18.00 x25).
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeGateway records CreateSession calls instead of hitting the wire.
type fakeGateway struct {
	calls  int
	params payments.CreateSessionParams
	err    error
}

func (f *fakeGateway) CreateSession(_ context.Context, p payments.CreateSessionParams) (*payments.Session, error) {
	f.calls++
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	return &payments.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

func newCheckout(db *sqlx.DB, gw *fakeGateway) *services.CheckoutService {
	return &services.CheckoutService{
		Prods:                 repos.NewProductRepo(db),
		Gateway:               gw,
		AppURL:                "http://localhost:8080",
		ShippingFlatRate:      5.99,
		FreeShippingThreshold: 50.0,
	}
}

func wantStatusError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	var se *services.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, code, se.Code)
	require.Equal(t, msg, se.Msg)
}

func TestCreateSession_EmptyCart(t *testing.T) {
	gw := &fakeGateway{}
	svc := newCheckout(memdb(t), gw)

	_, err := svc.CreateSession(context.Background(), "sid-1", "", services.CheckoutRequest{})
	wantStatusError(t, err, 400, "No items provided")
	require.Zero(t, gw.calls)
}

func TestCreateSession_ValidationFailures(t *testing.T) {
	db := memdb(t)
	db.MustExec(`INSERT INTO products(id,name,slug,price,inventory_count,is_published)
	             VALUES('prod-draft','Unfinished Vase','unfinished-vase',40.00,3,0)`)
	gw := &fakeGateway{}
	svc := newCheckout(db, gw)

	cases := []struct {
		name  string
		items []domain.CheckoutItem
		code  int
		msg   string
	}{
		{"missing id", []domain.CheckoutItem{{Quantity: 1}}, 400, "Item 1 is missing product ID"},
		{"zero quantity", []domain.CheckoutItem{{ProductID: "prod-bracelet", Quantity: 0}}, 400, "Invalid quantity for item 1"},
		{"unknown product", []domain.CheckoutItem{{ProductID: "prod-ghost", Quantity: 1}}, 404, "Product not found: prod-ghost"},
		{"unpublished", []domain.CheckoutItem{{ProductID: "prod-draft", Quantity: 1}}, 400, "Unfinished Vase is no longer available"},
		{"over inventory", []domain.CheckoutItem{{ProductID: "prod-necklace", Quantity: 6}}, 400, "Insufficient inventory for Rose Gold Necklace: only 5 available"},
		{"second item fails", []domain.CheckoutItem{
			{ProductID: "prod-bracelet", Quantity: 1},
			{ProductID: "prod-ghost", Quantity: 1},
		}, 404, "Product not found: prod-ghost"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSession(context.Background(), "sid-1", "", services.CheckoutRequest{Items: tc.items})
			wantStatusError(t, err, tc.code, tc.msg)
		})
	}
	require.Zero(t, gw.calls, "no session may be created when validation fails")
}

func TestCreateSession_ServerPricesAndShipping(t *testing.T) {
	gw := &fakeGateway{}
	svc := newCheckout(memdb(t), gw)

	// Client lies about the bracelet price; the catalog price must win.
	res, err := svc.CreateSession(context.Background(), "sid-1", "", services.CheckoutRequest{
		Items: []domain.CheckoutItem{
			{ProductID: "prod-bracelet", Price: 0.01, Quantity: 1},
			{ProductID: "prod-earrings", Price: 18.00, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", res.SessionID)
	require.Equal(t, 47.99, res.Subtotal)
	require.Equal(t, 5.99, res.ShippingCost)

	require.Equal(t, 1, gw.calls)
	p := gw.params

	// Product lines plus the synthetic shipping line.
	require.Len(t, p.LineItems, 3)
	require.Equal(t, int64(2999), p.LineItems[0].UnitAmount)
	require.Equal(t, "Shipping", p.LineItems[2].Name)
	require.Equal(t, int64(599), p.LineItems[2].UnitAmount)

	require.Equal(t, "guest", p.Metadata["user_id"])
	require.Equal(t, "sid-1", p.Metadata["sid"])
	require.Equal(t, "5.99", p.Metadata["shipping_cost"])

	var items []domain.CheckoutItem
	require.NoError(t, json.Unmarshal([]byte(p.Metadata["items"]), &items))
	require.Len(t, items, 2)
	require.Equal(t, 29.99, items[0].Price, "metadata must carry the catalog price")
}

func TestCreateSession_FreeShippingOverThreshold(t *testing.T) {
	gw := &fakeGateway{}
	svc := newCheckout(memdb(t), gw)

	res, err := svc.CreateSession(context.Background(), "sid-1", "u-7", services.CheckoutRequest{
		Items: []domain.CheckoutItem{{ProductID: "prod-necklace", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 64.50, res.Subtotal)
	require.Zero(t, res.ShippingCost)

	p := gw.params
	require.Len(t, p.LineItems, 1, "no shipping line when shipping is free")
	require.Equal(t, "u-7", p.Metadata["user_id"])
	require.Equal(t, "0.00", p.Metadata["shipping_cost"])
}

func TestCreateSession_GatewayErrorPropagates(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection refused")}
	svc := newCheckout(memdb(t), gw)

	_, err := svc.CreateSession(context.Background(), "sid-1", "", services.CheckoutRequest{
		Items: []domain.CheckoutItem{{ProductID: "prod-bracelet", Quantity: 1}},
	})
	require.Error(t, err)
	var se *services.StatusError
	require.False(t, errors.As(err, &se), "gateway failures are not client errors")
}

func TestShippingCost_Boundary(t *testing.T) {
	svc := &services.CheckoutService{ShippingFlatRate: 5.99, FreeShippingThreshold: 50.0}
	require.Equal(t, 5.99, svc.ShippingCost(49.99))
	require.Zero(t, svc.ShippingCost(50.00))
	require.Zero(t, svc.ShippingCost(120.10))
}
