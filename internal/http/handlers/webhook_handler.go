package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "artventure/internal/log"
	"artventure/internal/payments"
	"artventure/internal/services"
)

type WebhookHandler struct {
	Orders *services.OrderService
	Secret string
}

// Receive verifies the payment processor's signature over the raw body
// before anything in it is trusted, then materializes the order. A bad
// or stale signature is a 400 so the processor does not retry forever; a
// materialization failure is a 500 so it does retry, and the idempotency
// key makes the retry safe.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	body := c.Body()
	header := c.Get(payments.SignatureHeader)

	ev, err := payments.VerifyAndParse(body, header, h.Secret, payments.DefaultTolerance)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrMissingSignature):
			applog.Security(c, "webhook.signature.missing", nil)
		case errors.Is(err, payments.ErrStaleTimestamp):
			applog.Security(c, "webhook.signature.stale", nil)
		default:
			applog.Security(c, "webhook.signature.invalid", map[string]any{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	order, err := h.Orders.HandleEvent(c.Context(), ev)
	if err != nil {
		applog.Error(c, "webhook.process.fail", err, map[string]any{"type": ev.Type, "event": ev.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook processing failed"})
	}

	if order != nil {
		applog.Audit(c, "webhook.order.materialized", map[string]any{
			"event": ev.ID, "order": order.OrderNumber, "payment_ref": order.PaymentRef,
		})
	}
	return c.JSON(fiber.Map{"received": true})
}
