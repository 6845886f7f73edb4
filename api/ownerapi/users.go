package ownerapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/formgate/formgate/internal/apperr"
	"github.com/formgate/formgate/internal/credential"
)

func registerUsers(r fiber.Router, creds *credential.Manager) {
	r.Post(
		"/users/register", func(c *fiber.Ctx) error {
			body, err := decodeObject(c.Body())
			if err != nil {
				return err
			}
			fe := apperr.FieldErrors{}
			email := body.requiredString("email", fe)
			if email != nil {
				*email = normalizeEmail("email", *email, fe)
			}
			name := body.string("name", fe)
			if name != nil {
				checkLength("name", *name, 1, 100, fe)
			}
			if !fe.Empty() {
				return apperr.Validation(nil, fe)
			}

			user, raw, err := creds.Register(c.UserContext(), *email, name)
			if err != nil {
				return err
			}
			return c.Status(fiber.StatusCreated).JSON(
				fiber.Map{
					"user":    user,
					"api_key": raw,
				},
			)
		},
	)
}
