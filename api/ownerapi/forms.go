package ownerapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/pkg/errors"

	"github.com/formgate/formgate/internal/apperr"
	"github.com/formgate/formgate/internal/intake"
	"github.com/formgate/formgate/internal/schema"
	"github.com/formgate/formgate/storage/model"
)

// Submission listing bounds
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

const (
	maxFormNameLength = 120
	msgLimit          = "Must be an integer between 1 and 200."
	msgOffset         = "Must be a non-negative integer."
)

func registerForms(r fiber.Router, forms model.FormsStore, submissions model.SubmissionsStore) {
	r.Get(
		"/", func(c *fiber.Ctx) error {
			list, err := forms.List(c.UserContext(), identity(c).User.ID)
			if err != nil {
				return errors.WithStack(err)
			}
			if list == nil {
				list = []model.Form{}
			}
			return c.JSON(fiber.Map{"forms": list})
		},
	)

	r.Post(
		"/", func(c *fiber.Ctx) error {
			body, err := decodeObject(c.Body())
			if err != nil {
				return err
			}
			fe := apperr.FieldErrors{}
			name := body.requiredString("name", fe)
			if name != nil {
				checkLength("name", *name, 1, maxFormNameLength, fe)
			}
			notifyEmail := body.requiredString("notify_email", fe)
			if notifyEmail != nil {
				*notifyEmail = normalizeEmail("notify_email", *notifyEmail, fe)
			}
			rules := body.ruleSet("schema", fe)
			isActive := body.bool("is_active", fe)
			if !fe.Empty() {
				return apperr.Validation(nil, fe)
			}

			form := &model.Form{
				UserID:      identity(c).User.ID,
				Name:        *name,
				NotifyEmail: *notifyEmail,
				Schema:      schema.RuleSet{},
				IsActive:    true,
			}
			if rules != nil {
				form.Schema = *rules
			}
			if isActive != nil {
				form.IsActive = *isActive
			}
			if err = forms.Create(c.UserContext(), form); err != nil {
				return errors.WithStack(err)
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"form": form})
		},
	)

	r.Patch(
		"/:id", func(c *fiber.Ctx) error {
			formID := utils.CopyString(c.Params("id"))
			if err := checkID("id", formID); err != nil {
				return err
			}
			body, err := decodeObject(c.Body())
			if err != nil {
				return err
			}
			fe := apperr.FieldErrors{}
			update := model.FormUpdate{
				Name:        body.string("name", fe),
				NotifyEmail: body.string("notify_email", fe),
				Schema:      body.ruleSet("schema", fe),
				IsActive:    body.bool("is_active", fe),
			}
			if update.Name != nil {
				checkLength("name", *update.Name, 1, maxFormNameLength, fe)
			}
			if update.NotifyEmail != nil {
				*update.NotifyEmail = normalizeEmail("notify_email", *update.NotifyEmail, fe)
			}
			if !fe.Empty() {
				return apperr.Validation(nil, fe)
			}

			form, err := forms.Update(c.UserContext(), identity(c).User.ID, formID, update)
			if err != nil {
				return formError(err)
			}
			return c.JSON(fiber.Map{"form": form})
		},
	)

	r.Get(
		"/:id/submissions", func(c *fiber.Ctx) error {
			formID := utils.CopyString(c.Params("id"))
			if err := checkID("id", formID); err != nil {
				return err
			}
			page, err := parsePage(c.Query("limit"), c.Query("offset"))
			if err != nil {
				return err
			}
			subs, total, err := submissions.List(c.UserContext(), identity(c).User.ID, formID, page)
			if err != nil {
				return formError(err)
			}
			return c.JSON(
				fiber.Map{
					"submissions": subs,
					"pagination": fiber.Map{
						"limit":    page.Limit,
						"offset":   page.Offset,
						"total":    total,
						"has_more": int64(page.Offset+len(subs)) < total,
					},
				},
			)
		},
	)
}

// parsePage parses the limit and offset query parameters
func parsePage(limit, offset string) (model.Page, error) {
	page := model.Page{
		Limit:  DefaultPageLimit,
		Offset: 0,
	}
	fe := apperr.FieldErrors{}
	if limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil || l < 1 || l > MaxPageLimit {
			fe.Add("limit", msgLimit)
		}
		page.Limit = l
	}
	if offset != "" {
		o, err := strconv.Atoi(offset)
		if err != nil || o < 0 {
			fe.Add("offset", msgOffset)
		}
		page.Offset = o
	}
	if !fe.Empty() {
		return page, apperr.Validation(nil, fe)
	}
	return page, nil
}

func formError(err error) error {
	var nf model.NotFoundError
	if errors.As(err, &nf) {
		return apperr.NotFound(intake.MsgFormNotFound)
	}
	return errors.WithStack(err)
}
