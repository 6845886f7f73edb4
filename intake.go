package formgate

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/formgate/formgate/internal/intake"
	"github.com/formgate/formgate/internal/ratelimit"
)

// Rate limit response headers
const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
)

// registerIntake mounts the public submission endpoint; any origin may post
func registerIntake(r fiber.Router, orchestrator *intake.Orchestrator) {
	r.Use(
		cors.New(
			cors.Config{
				AllowOrigins: "*",
				AllowMethods: "POST,OPTIONS",
			},
		),
	)
	r.Post(
		"/:formId", func(c *fiber.Ctx) error {
			res, err := orchestrator.Submit(
				c.UserContext(), intake.Request{
					FormID:    utils.CopyString(c.Params("formId")),
					ClientIP:  utils.CopyString(c.IP()),
					UserAgent: utils.CopyString(c.Get(fiber.HeaderUserAgent)),
					Body:      c.Body(),
				},
			)
			setRateLimitHeaders(c, res.RateLimit)
			if err != nil {
				return err
			}
			if res.Spam {
				return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
			}
			return c.Status(fiber.StatusCreated).JSON(
				fiber.Map{
					"accepted":      true,
					"submission_id": res.SubmissionID,
					"created_at":    res.CreatedAt,
				},
			)
		},
	)
}

func setRateLimitHeaders(c *fiber.Ctx, rl *ratelimit.Result) {
	if rl == nil {
		return
	}
	reset := strconv.Itoa(int(math.Ceil(rl.Reset.Seconds())))
	c.Set(HeaderRateLimitLimit, strconv.Itoa(rl.Limit))
	c.Set(HeaderRateLimitRemaining, strconv.Itoa(rl.Remaining))
	c.Set(HeaderRateLimitReset, reset)
	if !rl.Allowed {
		c.Set(fiber.HeaderRetryAfter, reset)
	}
}
