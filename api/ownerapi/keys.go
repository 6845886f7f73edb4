package ownerapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/formgate/formgate/internal/credential"
)

func registerKeys(r fiber.Router, creds *credential.Manager) {
	r.Get(
		"/", func(c *fiber.Ctx) error {
			id := identity(c)
			keys, err := creds.List(c.UserContext(), id.User.ID, id.KeyID)
			if err != nil {
				return err
			}
			return c.JSON(fiber.Map{"keys": keys})
		},
	)

	r.Post(
		"/", func(c *fiber.Ctx) error {
			key, raw, err := creds.Issue(c.UserContext(), identity(c).User.ID)
			if err != nil {
				return err
			}
			return c.Status(fiber.StatusCreated).JSON(
				fiber.Map{
					"key":     key,
					"api_key": raw,
				},
			)
		},
	)

	r.Post(
		"/:id/revoke", func(c *fiber.Ctx) error {
			keyID := c.Params("id")
			if err := checkID("id", keyID); err != nil {
				return err
			}
			key, err := creds.Revoke(c.UserContext(), identity(c).User.ID, keyID)
			if err != nil {
				return err
			}
			return c.JSON(fiber.Map{"key": key})
		},
	)
}
