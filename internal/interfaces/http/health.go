package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger comprueba la conectividad de una dependencia (PostgreSQL, Redis).
type Pinger func(ctx context.Context) error

// Health responde el estado del servicio y de cada dependencia; 503 si alguna falla.
// Nunca expone credenciales ni el detalle del error.
func Health(service string, checks map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		status := fiber.StatusOK
		deps := make(map[string]string, len(checks))
		for name, ping := range checks {
			deps[name] = "connected"
			if err := ping(ctx); err != nil {
				deps[name] = "error"
				status = fiber.StatusServiceUnavailable
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"ok":      status == fiber.StatusOK,
			"service": service,
			"deps":    deps,
		})
	}
}
