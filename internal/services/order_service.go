package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"artventure/internal/domain"
	"artventure/internal/events"
	applog "artventure/internal/log"
	"artventure/internal/payments"
	"artventure/internal/repos"
)

// Notifier is the slice of the mailer the order flow needs. Order
// notifications are best-effort: every call site logs and swallows the
// returned error.
type Notifier interface {
	OrderConfirmation(ctx context.Context, o *domain.Order) error
	OrderProcessing(ctx context.Context, o *domain.Order) error
	OrderShipped(ctx context.Context, o *domain.Order) error
}

type OrderService struct {
	Orders *repos.OrderRepo
	Prods  *repos.ProductRepo
	Carts  *repos.CartRepo
	Mail   Notifier
	Events *events.Publisher
}

func NewOrderService(orders *repos.OrderRepo, prods *repos.ProductRepo, carts *repos.CartRepo, mail Notifier, ev *events.Publisher) *OrderService {
	return &OrderService{Orders: orders, Prods: prods, Carts: carts, Mail: mail, Events: ev}
}

func (s *OrderService) Get(id string) (*domain.Order, error) {
	return s.Orders.Get(id)
}

func (s *OrderService) ListLatest(limit int) ([]domain.Order, error) {
	return s.Orders.ListLatest(limit)
}

// ListForOwner returns an authenticated user's orders, or a guest's by
// contact email.
func (s *OrderService) ListForOwner(owner domain.Owner) ([]domain.Order, error) {
	if owner.Kind == domain.OwnerUser {
		return s.Orders.ListByUser(owner.UserID)
	}
	return s.Orders.ListByEmail(owner.Email)
}

// HandleEvent processes a verified webhook event. Only the completed
// checkout session materializes an order; the payment-intent events are
// acknowledged no-ops, and anything else is logged and ignored.
func (s *OrderService) HandleEvent(ctx context.Context, ev *payments.Event) (*domain.Order, error) {
	switch ev.Type {
	case payments.EventCheckoutCompleted:
		return s.Materialize(ctx, &ev.Data.Object)
	case payments.EventIntentSucceeded, payments.EventIntentFailed:
		applog.Warn("webhook.intent.event", nil, map[string]any{"type": ev.Type, "id": ev.ID})
		return nil, nil
	default:
		applog.Warn("webhook.event.unhandled", nil, map[string]any{"type": ev.Type, "id": ev.ID})
		return nil, nil
	}
}

// orderNumber is a timestamp plus a short random suffix. The unique
// index on orders.order_number catches the unlucky collision; callers
// regenerate and retry.
func orderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

// Materialize turns a completed payment session into exactly one Order
// with its line items, decrements inventory, and kicks off the
// best-effort afterwork (cart clear, event publish, confirmation mail).
//
// The payment reference is the idempotency key: a duplicate delivery
// hits the unique constraint and returns the already-created order.
func (s *OrderService) Materialize(ctx context.Context, sess *payments.CheckoutSession) (*domain.Order, error) {
	itemsJSON := sess.Metadata["items"]
	if itemsJSON == "" {
		return nil, fmt.Errorf("session %s has no items metadata", sess.ID)
	}
	var items []domain.CheckoutItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("decode items metadata: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("session %s items metadata is empty", sess.ID)
	}

	// The metadata bag round-tripped through the processor, so treat it
	// as untrusted: confirm each product still exists before touching
	// the ledger for it.
	known := make(map[string]bool, len(items))
	for _, it := range items {
		if _, err := s.Prods.Get(it.ProductID); err != nil {
			applog.Warn("order.item.unknown_product", err, map[string]any{
				"session": sess.ID, "product": it.ProductID,
			})
			continue
		}
		known[it.ProductID] = true
	}

	email := sess.CustomerDetails.Email
	if email == "" {
		email = sess.Metadata["email"]
	}

	userID := sess.Metadata["user_id"]
	if userID == "guest" {
		userID = ""
	}

	shippingCost := float64(sess.TotalDetails.AmountShipping) / 100
	if sess.TotalDetails.AmountShipping == 0 {
		if hint, err := strconv.ParseFloat(sess.Metadata["shipping_cost"], 64); err == nil {
			shippingCost = hint
		}
	}
	taxAmount := float64(sess.TotalDetails.AmountTax) / 100
	totalAmount := float64(sess.AmountTotal) / 100

	paymentRef := sess.PaymentIntent
	if paymentRef == "" {
		paymentRef = sess.ID
	}

	addr := domain.ShippingAddress{
		Name:         sess.ShippingDetails.Name,
		AddressLine1: sess.ShippingDetails.Address.Line1,
		AddressLine2: sess.ShippingDetails.Address.Line2,
		City:         sess.ShippingDetails.Address.City,
		State:        sess.ShippingDetails.Address.State,
		PostalCode:   sess.ShippingDetails.Address.PostalCode,
		Country:      sess.ShippingDetails.Address.Country,
		Phone:        sess.CustomerDetails.Phone,
	}
	if addr.Name == "" {
		addr.Name = sess.CustomerDetails.Name
	}

	// Payment has already succeeded, so the order is born processing;
	// pending is reserved for orders still awaiting payment.
	order := &domain.Order{
		ID:           uuid.NewString(),
		UserID:       userID,
		Email:        email,
		Status:       domain.StatusProcessing,
		ShippingCost: shippingCost,
		TaxAmount:    taxAmount,
		TotalAmount:  totalAmount,
		PaymentRef:   paymentRef,
		Address:      addr,
	}

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		order.OrderNumber = orderNumber()
		err = s.Orders.Create(order)
		if err == nil || !repos.IsDuplicateOrderNumber(err) {
			break
		}
	}
	if repos.IsDuplicatePaymentRef(err) {
		existing, gerr := s.Orders.GetByPaymentRef(paymentRef)
		if gerr != nil {
			return nil, gerr
		}
		applog.Warn("order.duplicate_delivery", nil, map[string]any{
			"payment_ref": paymentRef, "order": existing.OrderNumber,
		})
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, it := range items {
		line := domain.OrderLine{
			ProductID:       it.ProductID,
			ProductName:     it.Name,
			PriceAtPurchase: it.Price,
			Quantity:        it.Quantity,
		}
		if err := s.Orders.InsertLine(order.ID, line); err != nil {
			return nil, fmt.Errorf("create order line %s: %w", it.ProductID, err)
		}
	}

	// Best-effort per item: one failed decrement must not abort the
	// siblings, and the conditional UPDATE keeps the count non-negative.
	for _, it := range items {
		if !known[it.ProductID] {
			continue
		}
		if err := s.Prods.DecrementInventory(it.ProductID, it.Quantity); err != nil {
			applog.Warn("order.inventory.decrement.fail", err, map[string]any{
				"order": order.OrderNumber, "product": it.ProductID, "qty": it.Quantity,
			})
		}
	}

	full, err := s.Orders.Get(order.ID)
	if err != nil {
		return nil, err
	}

	if sid := sess.Metadata["sid"]; sid != "" {
		if err := s.Carts.Clear(sid); err != nil {
			applog.Warn("order.cart.clear.fail", err, map[string]any{"sid": sid})
		}
	}

	s.Events.Publish(events.OrderCreated, map[string]any{
		"order_id":     full.ID,
		"order_number": full.OrderNumber,
		"email":        full.Email,
		"total":        full.TotalAmount,
	})

	if s.Mail != nil {
		if err := s.Mail.OrderConfirmation(ctx, full); err != nil {
			applog.Warn("order.mail.confirmation.fail", err, map[string]any{"order": full.OrderNumber})
		}
	}

	return full, nil
}

// UpdateStatus drives the admin-initiated lifecycle. A same-status
// update is a silent no-op (changed=false, no notification); an illegal
// jump is rejected. Transitions into processing and shipped dispatch the
// corresponding email, best-effort.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status, tracking string) (*domain.Order, bool, error) {
	if !domain.ValidStatus(status) {
		return nil, false, badRequest(fmt.Sprintf("invalid order status: %s", status))
	}
	to := domain.OrderStatus(status)

	order, err := s.Orders.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, notFound("Order not found")
	}
	if err != nil {
		return nil, false, err
	}

	if order.Status == to {
		if tracking != "" && tracking != order.TrackingNumber {
			if err := s.Orders.UpdateStatus(id, to, tracking); err != nil {
				return nil, false, err
			}
			order.TrackingNumber = tracking
		}
		return order, false, nil
	}
	if !domain.CanTransition(order.Status, to) {
		return nil, false, badRequest(fmt.Sprintf("cannot move order from %s to %s", order.Status, to))
	}

	if err := s.Orders.UpdateStatus(id, to, tracking); err != nil {
		return nil, false, err
	}
	order, err = s.Orders.Get(id)
	if err != nil {
		return nil, false, err
	}

	s.Events.Publish(events.OrderStatusChanged, map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       string(to),
	})

	if s.Mail != nil {
		var merr error
		switch to {
		case domain.StatusProcessing:
			merr = s.Mail.OrderProcessing(ctx, order)
		case domain.StatusShipped:
			merr = s.Mail.OrderShipped(ctx, order)
		}
		if merr != nil {
			applog.Warn("order.mail.status.fail", merr, map[string]any{
				"order": order.OrderNumber, "status": string(to),
			})
		}
	}

	return order, true, nil
}
