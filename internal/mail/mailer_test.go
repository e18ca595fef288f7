package mail_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"artventure/internal/domain"
	"artventure/internal/mail"
)

const templatesDir = "../../web/templates/email"

func sampleOrder() *domain.Order {
	return &domain.Order{
		OrderNumber:  "ORD-1700000000000-AB12CD34",
		Email:        "buyer@example.com",
		Status:       domain.StatusProcessing,
		ShippingCost: 5.99,
		TotalAmount:  53.98,
		Address: domain.ShippingAddress{
			Name: "Casey Buyer", AddressLine1: "12 Studio Lane",
			City: "Portland", State: "OR", PostalCode: "97201", Country: "US",
		},
		Lines: []domain.OrderLine{
			{ProductName: "Handmade Beaded Bracelet", PriceAtPurchase: 29.99, Quantity: 1},
			{ProductName: "Ceramic Drop Earrings", PriceAtPurchase: 18.00, Quantity: 1},
		},
	}
}

func TestOrderConfirmation_RendersAndSends(t *testing.T) {
	var got mail.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m, err := mail.New(srv.URL, "re_test_key", "ArtVenture <orders@artventure.test>", "support@artventure.test", templatesDir)
	if err != nil {
		t.Fatal(err)
	}

	o := sampleOrder()
	if err := m.OrderConfirmation(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if got.To != "buyer@example.com" {
		t.Fatalf("want buyer address, got %q", got.To)
	}
	if got.Subject != "Order Confirmation #ORD-1700000000000-AB12CD34" {
		t.Fatalf("bad subject: %q", got.Subject)
	}
	for _, want := range []string{"Casey Buyer", "ORD-1700000000000-AB12CD34", "$29.99", "$53.98", "12 Studio Lane"} {
		if !strings.Contains(got.HTML, want) {
			t.Fatalf("rendered body missing %q", want)
		}
	}
}

func TestOrderShipped_IncludesTracking(t *testing.T) {
	var got mail.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	m, err := mail.New(srv.URL, "re_test_key", "", "", templatesDir)
	if err != nil {
		t.Fatal(err)
	}
	o := sampleOrder()
	o.TrackingNumber = "TRK-778899"
	if err := m.OrderShipped(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got.HTML, "TRK-778899") {
		t.Fatal("shipped mail missing tracking number")
	}
}

func TestUnconfiguredMailer(t *testing.T) {
	m, err := mail.New("", "", "", "support@artventure.test", templatesDir)
	if err != nil {
		t.Fatal(err)
	}

	// Order mail silently skips.
	if err := m.OrderConfirmation(context.Background(), sampleOrder()); err != nil {
		t.Fatalf("order mail should no-op, got %v", err)
	}

	// Contact relay must fail loudly.
	err = m.ContactFormEmail(context.Background(), mail.ContactForm{Name: "A", Email: "a@x.com", Message: "hi"})
	if !errors.Is(err, mail.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}
