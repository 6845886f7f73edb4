package formgate

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/formgate/formgate/internal/apperr"
)

// MsgInternal replaces the details of unexpected errors in responses
const MsgInternal = "Internal server error."

type validationBody struct {
	FormErrors  []string           `json:"formErrors"`
	FieldErrors apperr.FieldErrors `json:"fieldErrors"`
}

// handleError is the fiber.ErrorHandler of the server. Validation errors are
// returned with their field-scoped details, all other errors as a message and
// the request id. Server errors are logged and their details are not exposed.
func handleError(c *fiber.Ctx, err error) error {
	rid := requestID(c)
	logger := log.WithFields(
		log.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.OriginalURL(),
		},
	)

	if e, ok := apperr.As(err); ok {
		if e.Kind == apperr.KindValidation {
			return c.Status(e.Status()).JSON(
				fiber.Map{
					"error": validationBody{
						FormErrors:  e.FormErrors,
						FieldErrors: e.FieldErrors,
					},
				},
			)
		}
		msg := e.Message
		if e.Status() >= fiber.StatusInternalServerError {
			logger.WithError(err).Error("request.failed")
			if e.Kind == apperr.KindInternal {
				msg = MsgInternal
			}
		}
		return c.Status(e.Status()).JSON(fiber.Map{"error": msg, "request_id": rid})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "request_id": rid})
	}

	logger.WithError(err).Error("request.failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": MsgInternal, "request_id": rid})
}
