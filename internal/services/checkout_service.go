package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"artventure/internal/domain"
	applog "artventure/internal/log"
	"artventure/internal/payments"
	"artventure/internal/repos"
)

// SessionCreator is the slice of the payment client the initiator needs.
type SessionCreator interface {
	CreateSession(ctx context.Context, p payments.CreateSessionParams) (*payments.Session, error)
}

type CheckoutService struct {
	Prods   *repos.ProductRepo
	Gateway SessionCreator

	AppURL                string
	ShippingFlatRate      float64
	FreeShippingThreshold float64
	ShippingCountries     []string
}

type CheckoutRequest struct {
	Items      []domain.CheckoutItem `json:"items"`
	SuccessURL string                `json:"successUrl"`
	CancelURL  string                `json:"cancelUrl"`
}

type CheckoutResult struct {
	SessionID    string  `json:"sessionId"`
	URL          string  `json:"url"`
	ShippingCost float64 `json:"shippingCost"`
	Subtotal     float64 `json:"subtotal"`
}

// ShippingCost applies the flat rate unless the subtotal clears the
// free-shipping threshold.
func (s *CheckoutService) ShippingCost(subtotal float64) float64 {
	if subtotal >= s.FreeShippingThreshold {
		return 0
	}
	return s.ShippingFlatRate
}

// CreateSession validates the cart against the live catalog and requests
// a hosted payment page. Validation short-circuits on the first failure;
// all items must pass every check before any session is created.
//
// Unit prices are re-derived from the catalog here: the client-supplied
// price is audit material, never the charge amount.
func (s *CheckoutService) CreateSession(ctx context.Context, sessionID, userID string, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, badRequest("No items provided")
	}

	validated := make([]domain.CheckoutItem, 0, len(req.Items))
	clientSubtotal := 0.0
	for i, item := range req.Items {
		if item.ProductID == "" {
			return nil, badRequest(fmt.Sprintf("Item %d is missing product ID", i+1))
		}
		if item.Quantity < 1 {
			return nil, badRequest(fmt.Sprintf("Invalid quantity for item %d", i+1))
		}

		p, err := s.Prods.Get(item.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(fmt.Sprintf("Product not found: %s", item.ProductID))
		}
		if err != nil {
			return nil, err
		}
		if !p.IsPublished {
			return nil, badRequest(fmt.Sprintf("%s is no longer available", p.Name))
		}
		if item.Quantity > p.InventoryCount {
			return nil, badRequest(fmt.Sprintf(
				"Insufficient inventory for %s: only %d available", p.Name, p.InventoryCount))
		}

		clientSubtotal += item.Price * float64(item.Quantity)
		validated = append(validated, domain.CheckoutItem{
			ProductID:   p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Quantity:    item.Quantity,
			Description: item.Description,
			Image:       item.Image,
		})
	}

	subtotal := 0.0
	for _, it := range validated {
		subtotal += it.Price * float64(it.Quantity)
	}
	subtotal = domain.RoundCents(subtotal)
	if domain.MinorUnits(clientSubtotal) != domain.MinorUnits(subtotal) {
		applog.Warn("checkout.price.mismatch", nil, map[string]any{
			"client_subtotal": domain.RoundCents(clientSubtotal),
			"server_subtotal": subtotal,
		})
	}

	shipping := s.ShippingCost(subtotal)

	lineItems := make([]payments.LineItem, 0, len(validated)+1)
	for _, it := range validated {
		li := payments.LineItem{
			Name:        it.Name,
			Description: it.Description,
			UnitAmount:  domain.MinorUnits(it.Price),
			Quantity:    it.Quantity,
		}
		if it.Image != "" {
			li.Images = []string{it.Image}
		}
		lineItems = append(lineItems, li)
	}
	if shipping > 0 {
		// Synthetic line so the processor's per-line breakdown shows it.
		lineItems = append(lineItems, payments.LineItem{
			Name:       "Shipping",
			UnitAmount: domain.MinorUnits(shipping),
			Quantity:   1,
		})
	}

	// The completed-session event learns what was purchased only from
	// this metadata bag; the processor does not round-trip product ids.
	itemsJSON, err := json.Marshal(validated)
	if err != nil {
		return nil, err
	}
	metadata := map[string]string{
		"items":         string(itemsJSON),
		"user_id":       userID,
		"sid":           sessionID,
		"shipping_cost": fmt.Sprintf("%.2f", shipping),
	}
	if userID == "" {
		metadata["user_id"] = "guest"
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.AppURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.AppURL + "/cart"
	}

	countries := s.ShippingCountries
	if len(countries) == 0 {
		countries = []string{"US", "CA", "GB", "AU"}
	}

	sess, err := s.Gateway.CreateSession(ctx, payments.CreateSessionParams{
		LineItems:         lineItems,
		SuccessURL:        successURL,
		CancelURL:         cancelURL,
		Metadata:          metadata,
		ShippingCountries: countries,
		CollectPhone:      true,
		AutomaticTax:      true,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		SessionID:    sess.ID,
		URL:          sess.URL,
		ShippingCost: shipping,
		Subtotal:     subtotal,
	}, nil
}
