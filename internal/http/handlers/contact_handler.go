package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "artventure/internal/log"
	"artventure/internal/mail"
	"artventure/internal/validate"
)

type ContactHandler struct {
	Mail *mail.Mailer
}

// Submit relays a contact-form message to the store's support address.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	name, ok := validate.Name(body.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A name is required"})
	}
	email, ok := validate.Email(body.Email)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A valid email is required"})
	}
	msg := strings.TrimSpace(body.Message)
	if msg == "" || len(msg) > 5000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A message is required"})
	}

	err := h.Mail.ContactFormEmail(c.Context(), mail.ContactForm{Name: name, Email: email, Message: msg})
	if err != nil {
		applog.Error(c, "contact.send.fail", err, map[string]any{"email": email})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not send your message. Please try again later."})
	}
	applog.Info(c, "contact.send", map[string]any{"email": email})
	return c.JSON(fiber.Map{"sent": true})
}
