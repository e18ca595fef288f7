package repos

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"artventure/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `
  id, order_number, COALESCE(user_id,'') AS user_id, email, status,
  shipping_cost, tax_amount, total_amount, shipping_address,
  COALESCE(tracking_number,'') AS tracking_number, payment_ref,
  created_at, COALESCE(updated_at,'') AS updated_at`

// IsDuplicatePaymentRef reports whether an insert failed because an order
// for the same payment reference already exists.
func IsDuplicatePaymentRef(err error) bool {
	return err != nil && strings.Contains(err.Error(), "orders.payment_ref")
}

// IsDuplicateOrderNumber reports an order-number collision, so the caller
// can regenerate and retry.
func IsDuplicateOrderNumber(err error) bool {
	return err != nil && strings.Contains(err.Error(), "orders.order_number")
}

// Create inserts the order header. The unique indexes on payment_ref and
// order_number surface as constraint errors classified by the helpers
// above.
func (r *OrderRepo) Create(o *domain.Order) error {
	addr, err := json.Marshal(o.Address)
	if err != nil {
		return err
	}
	var userID any
	if o.UserID != "" {
		userID = o.UserID
	}
	_, err = r.db.Exec(`
	  INSERT INTO orders
	    (id, order_number, user_id, email, status, shipping_cost, tax_amount,
	     total_amount, shipping_address, payment_ref, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, o.ID, o.OrderNumber, userID, o.Email, o.Status, o.ShippingCost,
		o.TaxAmount, o.TotalAmount, string(addr), o.PaymentRef)
	return err
}

// InsertLine inserts a single line item with its purchase-time snapshot.
func (r *OrderRepo) InsertLine(orderID string, l domain.OrderLine) error {
	var productID any
	if l.ProductID != "" {
		productID = l.ProductID
	}
	_, err := r.db.Exec(`
	  INSERT INTO order_items(order_id, product_id, product_name, price_at_purchase, quantity)
	  VALUES(?,?,?,?,?)
	`, orderID, productID, l.ProductName, l.PriceAtPurchase, l.Quantity)
	return err
}

func (r *OrderRepo) lines(orderID string) ([]domain.OrderLine, error) {
	var out []domain.OrderLine
	err := r.db.Select(&out, `
	  SELECT id, order_id, COALESCE(product_id,'') AS product_id,
	         product_name, price_at_purchase, quantity
	  FROM order_items WHERE order_id = ? ORDER BY id
	`, orderID)
	return out, err
}

func (r *OrderRepo) hydrate(o *domain.Order) error {
	if o.ShippingJSON != "" {
		if err := json.Unmarshal([]byte(o.ShippingJSON), &o.Address); err != nil {
			return err
		}
	}
	lines, err := r.lines(o.ID)
	if err != nil {
		return err
	}
	o.Lines = lines
	return nil
}

func (r *OrderRepo) Get(id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := r.hydrate(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) GetByPaymentRef(ref string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE payment_ref = ?`, ref); err != nil {
		return nil, err
	}
	if err := r.hydrate(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.hydrate(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListByEmail serves guest lookups only; orders owned by a registered
// user are reachable through ListByUser alone.
func (r *OrderRepo) ListByEmail(email string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  WHERE LOWER(email) = LOWER(?) AND user_id IS NULL
	  ORDER BY datetime(created_at) DESC
	`, email)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.hydrate(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  ORDER BY datetime(created_at) DESC LIMIT ?
	`, limit)
	return out, err
}

// UpdateStatus sets the lifecycle status and, when provided, the carrier
// tracking number. Transition legality is the service layer's concern.
func (r *OrderRepo) UpdateStatus(id string, status domain.OrderStatus, tracking string) error {
	if tracking != "" {
		_, err := r.db.Exec(`UPDATE orders SET status=?, tracking_number=?, updated_at=? WHERE id=?`,
			status, tracking, time.Now().UTC().Format(time.RFC3339), id)
		return err
	}
	_, err := r.db.Exec(`UPDATE orders SET status=?, updated_at=? WHERE id=?`,
		status, time.Now().UTC().Format(time.RFC3339), id)
	return err
}
