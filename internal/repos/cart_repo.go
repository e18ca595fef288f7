package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"artventure/internal/cart"
)

// CartRepo is the durable store behind the cart aggregator, keyed by the
// buyer's session id. Lines carry the price/name/image snapshot taken at
// add time; totals are derived by the cart package, not by SQL.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) EnsureCart(sessionID string) (string, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID); err == nil {
		return cartID, nil
	}
	_, err := r.db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// UpsertLine adds qty to an existing line for the product or inserts a
// new one; a product never ends up with two lines.
func (r *CartRepo) UpsertLine(cartID string, l cart.Line) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(cart_id,product_id,quantity,price_at_add,name_at_add,image_at_add,created_at)
		VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id,product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP
	`, cartID, l.ProductID, l.Quantity, l.Price, l.Name, l.Image)
	return err
}

// SetQuantity replaces a line's quantity; qty <= 0 removes the line.
func (r *CartRepo) SetQuantity(cartID, productID string, qty int) error {
	if qty <= 0 {
		return r.RemoveLine(cartID, productID)
	}
	_, err := r.db.Exec(`
		UPDATE cart_items SET quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE cart_id = ? AND product_id = ?
	`, qty, cartID, productID)
	return err
}

func (r *CartRepo) RemoveLine(cartID, productID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	return err
}

func (r *CartRepo) Lines(cartID string) ([]cart.Line, error) {
	var rows []struct {
		ProductID string  `db:"product_id"`
		Quantity  int     `db:"quantity"`
		Price     float64 `db:"price_at_add"`
		Name      string  `db:"name_at_add"`
		Image     string  `db:"image_at_add"`
	}
	if err := r.db.Select(&rows, `
	  SELECT product_id, quantity, price_at_add, name_at_add, image_at_add
	  FROM cart_items WHERE cart_id = ? ORDER BY created_at
	`, cartID); err != nil {
		return nil, err
	}
	out := make([]cart.Line, 0, len(rows))
	for _, r := range rows {
		out = append(out, cart.Line{
			ProductID: r.ProductID, Quantity: r.Quantity,
			Price: r.Price, Name: r.Name, Image: r.Image,
		})
	}
	return out, nil
}

func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}
