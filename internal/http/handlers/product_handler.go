package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"artventure/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// List returns the published catalog; ?featured=true narrows to the
// storefront's featured strip.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	featured := c.Query("featured") == "true"
	prods, err := h.Catalog.ListPublished(featured)
	if err != nil {
		return fail(c, "products.list", err)
	}
	return c.JSON(fiber.Map{"products": prods})
}

// Get resolves a product by id or slug.
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Catalog.Get(c.Params("id"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}
	if err != nil {
		return fail(c, "products.get", err)
	}
	return c.JSON(p)
}
