package handlers

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"artventure/internal/domain"
	applog "artventure/internal/log"
	"artventure/internal/services"
	"artventure/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
	Auth   *services.AuthService
}

// Get returns a single order. Guests may look up their own orders by id
// plus the contact email; logged-in users see their own; admins see any.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}
	o, err := h.Orders.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}
	if err != nil {
		return fail(c, "orders.get", err)
	}

	var u *domain.User
	if sid := c.Cookies("sid"); h.Auth != nil && sid != "" {
		u, _ = h.Auth.CurrentUser(sid)
	}
	owner := o.Owner()
	switch {
	case u != nil && u.Role == "ADMIN":
	case u != nil && owner.Kind == domain.OwnerUser && owner.UserID == u.ID:
	case owner.Kind == domain.OwnerGuest && c.Query("email") != "" && strings.EqualFold(c.Query("email"), o.Email):
	default:
		applog.Security(c, "access.denied.order", map[string]any{"order": id})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}
	return c.JSON(o)
}

// History lists the logged-in user's orders, newest first.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}
	orders, err := h.Orders.ListForOwner(domain.Owner{Kind: domain.OwnerUser, UserID: u.ID, Email: u.Email})
	if err != nil {
		return fail(c, "orders.history", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// Lookup lists a guest's orders by contact email.
func (h *OrderHandler) Lookup(c *fiber.Ctx) error {
	email, ok := validate.Email(c.Query("email"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A valid email is required"})
	}
	orders, err := h.Orders.ListForOwner(domain.Owner{Kind: domain.OwnerGuest, Email: email})
	if err != nil {
		return fail(c, "orders.lookup", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}
