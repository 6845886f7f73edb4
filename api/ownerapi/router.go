// Package ownerapi implements the authenticated api used by form owners to
// manage their forms, read submissions and manage their API keys.
package ownerapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/formgate/formgate/internal/credential"
	"github.com/formgate/formgate/storage/model"
)

// Options controls optional features of the owner API registration.
type Options struct {
	// AllowedOrigins are the browser origins allowed to call the api
	AllowedOrigins []string
}

// Services holds what the owner API handlers depend on
type Services struct {
	Credentials *credential.Manager
	Forms       model.FormsStore
	Submissions model.SubmissionsStore
}

// Register mounts all owner API routes under the provided group.
func Register(r fiber.Router, services Services, opts Options) error {
	corsHandlers, err := dashboardCORS(opts.AllowedOrigins)
	if err != nil {
		return err
	}
	for _, h := range corsHandlers {
		r.Use(h)
	}

	registerUsers(r, services.Credentials)

	auth := authMiddleware(services.Credentials)
	registerForms(r.Group("/forms", auth), services.Forms, services.Submissions)
	registerKeys(r.Group("/keys", auth), services.Credentials)
	return nil
}
