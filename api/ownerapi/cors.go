package ownerapi

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/pkg/errors"

	"github.com/formgate/formgate/internal/apperr"
)

// MsgCORSBlocked is returned for requests from origins that are not allowed
const MsgCORSBlocked = "CORS blocked for dashboard origin."

// DefaultDashboardOrigin is allowed if no origins are configured
const DefaultDashboardOrigin = "http://localhost:5173"

// dashboardCORS only lets the configured dashboard origins use the api;
// requests without an Origin header are not browser requests and pass.
func dashboardCORS(origins []string) ([]fiber.Handler, error) {
	if len(origins) == 0 {
		origins = []string{DefaultDashboardOrigin}
	}
	for _, o := range origins {
		if o == "*" || strings.TrimSpace(o) == "" {
			return nil, errors.Errorf("ownerapi: invalid dashboard origin '%s'", o)
		}
	}
	guard := func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" || slices.Contains(origins, origin) {
			return c.Next()
		}
		return apperr.New(apperr.KindForbidden, MsgCORSBlocked)
	}
	return []fiber.Handler{
		guard,
		cors.New(
			cors.Config{
				AllowOrigins:     strings.Join(origins, ","),
				AllowMethods:     "GET,POST,PATCH,OPTIONS",
				AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
				ExposeHeaders:    "X-Request-ID",
				AllowCredentials: true,
			},
		),
	}, nil
}
