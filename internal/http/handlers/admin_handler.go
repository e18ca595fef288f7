package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "artventure/internal/log"
	"artventure/internal/services"
	"artventure/internal/validate"
)

// AdminHandler is the back-office surface: product CRUD, the order
// queue, and the status lifecycle. Every route is behind RequireAdmin.
type AdminHandler struct {
	Catalog *services.CatalogService
	Orders  *services.OrderService
}

func (h *AdminHandler) ListProducts(c *fiber.Ctx) error {
	prods, err := h.Catalog.ListAll()
	if err != nil {
		return fail(c, "admin.products.list", err)
	}
	return c.JSON(fiber.Map{"products": prods})
}

func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	p, err := h.Catalog.Create(in)
	if err != nil {
		return fail(c, "admin.products.create", err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product": p.ID, "name": p.Name})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	p, err := h.Catalog.Update(id, in)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}
	if err != nil {
		return fail(c, "admin.products.update", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product": p.ID})
	return c.JSON(p)
}

func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}
	if err := h.Catalog.Delete(id); err != nil {
		return fail(c, "admin.products.delete", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product": id})
	return c.JSON(fiber.Map{"deleted": true})
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	orders, err := h.Orders.ListLatest(limit)
	if err != nil {
		return fail(c, "admin.orders.list", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	o, err := h.Orders.Get(c.Params("id"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}
	if err != nil {
		return fail(c, "admin.orders.get", err)
	}
	return c.JSON(o)
}

// UpdateOrderStatus moves an order along its lifecycle. A repeat of the
// current status is accepted but changes nothing and sends no mail.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var body struct {
		Status         string `json:"status"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	o, changed, err := h.Orders.UpdateStatus(c.Context(), c.Params("id"), body.Status, body.TrackingNumber)
	if err != nil {
		return fail(c, "admin.orders.status.fail", err)
	}
	if changed {
		applog.Audit(c, "admin.orders.status", map[string]any{
			"order": o.OrderNumber, "status": body.Status,
		})
	}
	return c.JSON(o)
}
