package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// pageParams lee limit/offset o, si llegan, page/per_page (page empieza en 1).
// Los valores fuera de rango se normalizan a def y max.
func pageParams(c *fiber.Ctx, def, max int) (limit, offset int) {
	limit = c.QueryInt("limit", def)
	offset = c.QueryInt("offset", 0)
	if perPage := c.QueryInt("per_page", 0); perPage > 0 {
		limit = perPage
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if page := c.QueryInt("page", 0); page > 0 {
		offset = (page - 1) * limit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

const dateOnly = "2006-01-02"

// parseDateParam acepta RFC3339 o YYYY-MM-DD (UTC). Con endOfDay una fecha sin hora se
// extiende hasta el último instante del día para que el rango sea inclusivo.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
