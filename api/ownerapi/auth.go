package ownerapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/formgate/formgate/internal/credential"
)

// HeaderAPIKey carries the raw API key
const HeaderAPIKey = "X-API-Key"

type localsKey int

const identityLocal localsKey = iota

// authMiddleware requires a valid API key of a user in good standing and
// stores the resulting credential.Identity in the request locals
func authMiddleware(creds *credential.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := apiKeyHeader(c)
		raw := credential.Extract(key, ok, c.Get(fiber.HeaderAuthorization))
		id, err := creds.Authenticate(c.UserContext(), raw)
		if err != nil {
			return err
		}
		c.Locals(identityLocal, id)
		return c.Next()
	}
}

// apiKeyHeader returns the X-API-Key header value and whether the header was
// sent at all
func apiKeyHeader(c *fiber.Ctx) (value string, present bool) {
	c.Request().Header.VisitAll(
		func(k, v []byte) {
			if !present && strings.EqualFold(string(k), HeaderAPIKey) {
				value, present = string(v), true
			}
		},
	)
	return
}

// identity returns the authenticated identity of the request
func identity(c *fiber.Ctx) *credential.Identity {
	id, _ := c.Locals(identityLocal).(*credential.Identity)
	return id
}
