package handlers

import (
	"github.com/gofiber/fiber/v2"

	"artventure/internal/domain"
	applog "artventure/internal/log"
	"artventure/internal/services"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
	Auth     *services.AuthService
}

// Create validates the submitted items against the live catalog and
// responds with the hosted payment page URL. Anonymous buyers check out
// as guests; a logged-in user's id rides along in the session metadata.
func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	sid := ensureSID(c)

	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	userID := ""
	if h.Auth != nil {
		if u, err := h.Auth.CurrentUser(sid); err == nil && u != nil {
			userID = u.ID
		}
	}

	res, err := h.Checkout.CreateSession(c.Context(), sid, userID, req)
	if err != nil {
		return fail(c, "checkout.create.fail", err)
	}

	applog.Audit(c, "checkout.create", map[string]any{
		"session":  res.SessionID,
		"subtotal": res.Subtotal,
		"shipping": res.ShippingCost,
		"guest":    userID == "",
	})
	return c.JSON(res)
}

// Shipping quotes the shipping cost for a given subtotal, so the cart
// page can show the free-shipping progress before checkout.
func (h *CheckoutHandler) Shipping(c *fiber.Ctx) error {
	var body struct {
		Subtotal float64 `json:"subtotal"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	cost := h.Checkout.ShippingCost(domain.RoundCents(body.Subtotal))
	return c.JSON(fiber.Map{"shipping_cost": cost, "free_shipping_threshold": h.Checkout.FreeShippingThreshold})
}
