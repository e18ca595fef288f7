package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "artventure/internal/log"
	"artventure/internal/services"
	"artventure/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartLineBody struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(ensureSID(c))
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return c.JSON(cv)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var body cartLineBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if _, ok := validate.ID(body.ProductID); !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A product id is required"})
	}
	if err := h.Cart.Add(sid, body.ProductID, body.Quantity); err != nil {
		return fail(c, "cart.add", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product": body.ProductID, "qty": body.Quantity})
	return h.View(c)
}

func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var body cartLineBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.Cart.SetQuantity(sid, c.Params("productId"), body.Quantity); err != nil {
		return fail(c, "cart.set_quantity", err)
	}
	return h.View(c)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if err := h.Cart.Remove(sid, c.Params("productId")); err != nil {
		return fail(c, "cart.remove", err)
	}
	return h.View(c)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if err := h.Cart.Clear(sid); err != nil {
		return fail(c, "cart.clear", err)
	}
	return h.View(c)
}
