package domain

import "math"

type Product struct {
	ID             string  `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Slug           string  `db:"slug" json:"slug"`
	Description    string  `db:"description" json:"description,omitempty"`
	Price          float64 `db:"price" json:"price"`
	InventoryCount int     `db:"inventory_count" json:"inventory_count"`
	ImageURL       string  `db:"image_url" json:"image_url,omitempty"`
	IsPublished    bool    `db:"is_published" json:"is_published"`
	Featured       bool    `db:"featured" json:"featured"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	UpdatedAt      string  `db:"updated_at" json:"updated_at,omitempty"`
}

// CheckoutItem is one line of a checkout request. The same shape is
// serialized into the payment session metadata and read back by the
// webhook, so the completed-session event can learn what was purchased.
type CheckoutItem struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
}

type ShippingAddress struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusNext is the enforced forward progression of the order lifecycle.
var statusNext = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func ValidStatus(s string) bool {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to the
// other. A same-status update is not a transition.
func CanTransition(from, to OrderStatus) bool {
	for _, n := range statusNext[from] {
		if n == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID             string      `db:"id" json:"id"`
	OrderNumber    string      `db:"order_number" json:"order_number"`
	UserID         string      `db:"user_id" json:"user_id,omitempty"`
	Email          string      `db:"email" json:"email"`
	Status         OrderStatus `db:"status" json:"status"`
	ShippingCost   float64     `db:"shipping_cost" json:"shipping_cost"`
	TaxAmount      float64     `db:"tax_amount" json:"tax_amount"`
	TotalAmount    float64     `db:"total_amount" json:"total_amount"`
	ShippingJSON   string      `db:"shipping_address" json:"-"`
	TrackingNumber string      `db:"tracking_number" json:"tracking_number,omitempty"`
	PaymentRef     string      `db:"payment_ref" json:"payment_ref,omitempty"`
	CreatedAt      string      `db:"created_at" json:"created_at"`
	UpdatedAt      string      `db:"updated_at" json:"updated_at,omitempty"`

	Address ShippingAddress `db:"-" json:"shipping_address"`
	Lines   []OrderLine     `db:"-" json:"order_items,omitempty"`
}

// Subtotal is implied: total minus shipping minus tax.
func (o Order) Subtotal() float64 {
	return RoundCents(o.TotalAmount - o.ShippingCost - o.TaxAmount)
}

type OwnerKind int

const (
	OwnerGuest OwnerKind = iota
	OwnerUser
)

// Owner is the tagged form of the nullable user reference, so callers
// handle the guest case explicitly instead of checking an empty string.
type Owner struct {
	Kind   OwnerKind
	UserID string // set when Kind == OwnerUser
	Email  string // always set; the contact address for guests
}

func (o Order) Owner() Owner {
	if o.UserID != "" && o.UserID != "guest" {
		return Owner{Kind: OwnerUser, UserID: o.UserID, Email: o.Email}
	}
	return Owner{Kind: OwnerGuest, Email: o.Email}
}

// OrderLine snapshots the product name and price at purchase time; later
// catalog edits never change it. ProductID may be empty when the product
// was removed between checkout and materialization.
type OrderLine struct {
	ID              int64   `db:"id" json:"id"`
	OrderID         string  `db:"order_id" json:"order_id"`
	ProductID       string  `db:"product_id" json:"product_id,omitempty"`
	ProductName     string  `db:"product_name" json:"product_name"`
	PriceAtPurchase float64 `db:"price_at_purchase" json:"price_at_purchase"`
	Quantity        int     `db:"quantity" json:"quantity"`
}

// RoundCents rounds to currency-minor-unit (cent) precision.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// MinorUnits converts a dollar amount to integer cents for the payment
// processor wire format.
func MinorUnits(v float64) int64 {
	return int64(math.Round(v * 100))
}
