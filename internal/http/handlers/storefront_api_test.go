package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"artventure/internal/http/handlers"
	"artventure/internal/payments"
	"artventure/internal/repos"
	"artventure/internal/services"
)

type stubGateway struct{ lastMeta map[string]string }

func (s *stubGateway) CreateSession(_ context.Context, p payments.CreateSessionParams) (*payments.Session, error) {
	s.lastMeta = p.Metadata
	return &payments.Session{ID: "cs_front", URL: "https://pay.example.com/cs_front"}, nil
}

func newStorefrontApp(t *testing.T) (*fiber.App, *sqlx.DB, *stubGateway) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	prodRepo := repos.NewProductRepo(db)
	authSvc := services.NewAuthService(repos.NewUserRepo(db))
	gw := &stubGateway{}
	checkoutSvc := &services.CheckoutService{
		Prods: prodRepo, Gateway: gw,
		AppURL: "http://localhost:8080", ShippingFlatRate: 5.99, FreeShippingThreshold: 50.0,
	}
	orderSvc := services.NewOrderService(
		repos.NewOrderRepo(db), prodRepo, repos.NewCartRepo(db), nil, nil)

	prodH := &handlers.ProductHandler{Catalog: services.NewCatalogService(prodRepo)}
	cartH := &handlers.CartHandler{Cart: services.NewCartService(repos.NewCartRepo(db), prodRepo)}
	checkoutH := &handlers.CheckoutHandler{Checkout: checkoutSvc, Auth: authSvc}
	orderH := &handlers.OrderHandler{Orders: orderSvc, Auth: authSvc}

	app := fiber.New()
	api := app.Group("/api")
	api.Get("/products", prodH.List)
	api.Get("/products/:id", prodH.Get)
	api.Get("/cart", cartH.View)
	api.Post("/cart", cartH.Add)
	api.Post("/checkout", checkoutH.Create)
	api.Get("/orders/:id", orderH.Get)
	return app, db, gw
}

func jsonReq(method, path, body, sid string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return req
}

func TestProducts_PublicCatalog(t *testing.T) {
	app, db, _ := newStorefrontApp(t)
	db.MustExec(`INSERT INTO products(id,name,slug,price,inventory_count,is_published)
	             VALUES('prod-hidden','Hidden Draft','hidden-draft',10,1,0)`)

	resp, err := app.Test(jsonReq("GET", "/api/products", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Products) != 3 {
		t.Fatalf("want 3 published products, got %d", len(out.Products))
	}
	for _, p := range out.Products {
		if p.ID == "prod-hidden" {
			t.Fatal("unpublished product leaked into the catalog")
		}
	}

	// Lookup by slug resolves the same product as by id.
	resp, err = app.Test(jsonReq("GET", "/api/products/rose-gold-necklace", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("slug lookup: want 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(jsonReq("GET", "/api/products/prod-ghost", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product: want 404, got %d", resp.StatusCode)
	}
}

func TestCart_AddAndView(t *testing.T) {
	app, _, _ := newStorefrontApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/cart", `{"product_id":"prod-bracelet","quantity":2}`, "sid-c"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add: want 200, got %d", resp.StatusCode)
	}

	// Same product again merges instead of duplicating.
	if _, err := app.Test(jsonReq("POST", "/api/cart", `{"product_id":"prod-bracelet","quantity":1}`, "sid-c")); err != nil {
		t.Fatal(err)
	}

	resp, err = app.Test(jsonReq("GET", "/api/cart", "", "sid-c"))
	if err != nil {
		t.Fatal(err)
	}
	var cv struct {
		Items []struct {
			ProductID string  `json:"product_id"`
			Quantity  int     `json:"quantity"`
			Price     float64 `json:"price"`
		} `json:"items"`
		TotalItems int     `json:"total_items"`
		TotalPrice float64 `json:"total_price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cv); err != nil {
		t.Fatal(err)
	}
	if len(cv.Items) != 1 || cv.Items[0].Quantity != 3 {
		t.Fatalf("want one merged line of 3, got %+v", cv.Items)
	}
	if cv.TotalItems != 3 || cv.TotalPrice != 89.97 {
		t.Fatalf("bad totals: %+v", cv)
	}

	// Missing product id rejected.
	resp, err = app.Test(jsonReq("POST", "/api/cart", `{"quantity":1}`, "sid-c"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing id: want 400, got %d", resp.StatusCode)
	}
}

func TestCheckout_EndToEnd(t *testing.T) {
	app, _, gw := newStorefrontApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/checkout",
		`{"items":[{"product_id":"prod-earrings","price":18.00,"quantity":2}]}`, "sid-k"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var out struct {
		SessionID    string  `json:"sessionId"`
		URL          string  `json:"url"`
		ShippingCost float64 `json:"shippingCost"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.SessionID != "cs_front" || out.URL == "" {
		t.Fatalf("bad result: %+v", out)
	}
	if out.ShippingCost != 5.99 {
		t.Fatalf("want flat shipping, got %v", out.ShippingCost)
	}
	if gw.lastMeta["sid"] != "sid-k" || gw.lastMeta["user_id"] != "guest" {
		t.Fatalf("bad metadata: %+v", gw.lastMeta)
	}

	// Validation failures surface with their service message.
	resp, err = app.Test(jsonReq("POST", "/api/checkout",
		`{"items":[{"product_id":"prod-necklace","quantity":99}]}`, "sid-k"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Error != "Insufficient inventory for Rose Gold Necklace: only 5 available" {
		t.Fatalf("unexpected message: %q", e.Error)
	}
}

func TestOrderGet_OwnershipRules(t *testing.T) {
	app, db, _ := newStorefrontApp(t)
	db.MustExec(`INSERT INTO orders(id,order_number,user_id,email,status,total_amount,payment_ref,shipping_address)
	             VALUES('o-user','ORD-2-AAAABBBB','u-admin','admin@artventure.test','processing',10,'pi_u','{}')`)
	db.MustExec(`INSERT INTO orders(id,order_number,email,status,total_amount,payment_ref,shipping_address)
	             VALUES('o-guest','ORD-3-CCCCDDDD','guest@x.com','processing',10,'pi_g','{}')`)

	// Stranger cannot see a user's order.
	resp, err := app.Test(jsonReq("GET", "/api/orders/o-user", "", "sid-nobody"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger: want 404, got %d", resp.StatusCode)
	}

	// The owning user can.
	if err := repos.NewUserRepo(db).BindSession("sid-owner", "u-admin"); err != nil {
		t.Fatal(err)
	}
	resp, err = app.Test(jsonReq("GET", "/api/orders/o-user", "", "sid-owner"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner: want 200, got %d", resp.StatusCode)
	}

	// Guest orders need the matching contact email.
	resp, err = app.Test(jsonReq("GET", "/api/orders/o-guest", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("guest no email: want 404, got %d", resp.StatusCode)
	}
	resp, err = app.Test(jsonReq("GET", "/api/orders/o-guest?email=GUEST@x.com", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guest with email: want 200, got %d", resp.StatusCode)
	}
}
