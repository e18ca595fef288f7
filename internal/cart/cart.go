// Package cart models the buyer's working selection: a flat list of
// lines with add-time price snapshots. Operations are pure functions over
// the line list; persistence lives behind repos.CartRepo. Mutations never
// touch the network.
package cart

import "artventure/internal/domain"

// Line is one (product, quantity) pair with the product snapshot taken
// when it was added. The snapshot price drives totals; it is not a
// re-fetch and not an authoritative price for checkout.
type Line struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

func (l Line) Subtotal() float64 {
	return domain.RoundCents(l.Price * float64(l.Quantity))
}

// Add merges qty into an existing line for the product, or appends a new
// line with the given snapshot. A product id never yields two lines.
func Add(lines []Line, l Line) []Line {
	for i := range lines {
		if lines[i].ProductID == l.ProductID {
			lines[i].Quantity += l.Quantity
			return lines
		}
	}
	return append(lines, l)
}

// SetQuantity replaces a line's quantity; qty <= 0 removes the line.
func SetQuantity(lines []Line, productID string, qty int) []Line {
	if qty <= 0 {
		return Remove(lines, productID)
	}
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = qty
		}
	}
	return lines
}

func Remove(lines []Line, productID string) []Line {
	out := lines[:0]
	for _, l := range lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	return out
}

func TotalItems(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func TotalPrice(lines []Line) float64 {
	t := 0.0
	for _, l := range lines {
		t += l.Price * float64(l.Quantity)
	}
	return domain.RoundCents(t)
}
