package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "artventure/internal/log"
	"artventure/internal/services"
)

// fail maps a service error onto the wire. StatusError carries its own
// code and a caller-safe message; anything else is a 500 with the detail
// kept in the log only.
func fail(c *fiber.Ctx, action string, err error) error {
	var se *services.StatusError
	if errors.As(err, &se) {
		applog.Security(c, action, map[string]any{"error": se.Msg, "code": se.Code})
		return c.Status(se.Code).JSON(fiber.Map{"error": se.Msg})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// ensureSID returns the buyer's session id, minting a cookie on first
// contact. The same id keys the cart and anonymous checkout metadata.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
	}
	return sid
}
