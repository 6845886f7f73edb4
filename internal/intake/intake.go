// Package intake runs a public form submission through rate limiting,
// validation and spam classification, stores it and triggers the owner
// notification.
package intake

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/formgate/formgate/internal/apperr"
	"github.com/formgate/formgate/internal/notify"
	"github.com/formgate/formgate/internal/payload"
	"github.com/formgate/formgate/internal/ratelimit"
	"github.com/formgate/formgate/internal/schema"
	"github.com/formgate/formgate/internal/spam"
	"github.com/formgate/formgate/storage/model"
)

// MsgFormNotFound is returned for missing and inactive forms alike
const MsgFormNotFound = "Form not found."

// FormFinder looks up forms that accept submissions
type FormFinder interface {
	GetActive(ctx context.Context, id string) (*model.Form, error)
}

// SubmissionWriter stores submissions
type SubmissionWriter interface {
	Create(ctx context.Context, submission *model.Submission) error
}

// Request is a single public submission
type Request struct {
	FormID    string
	ClientIP  string
	UserAgent string
	Body      []byte
}

// Result is the outcome of an accepted submission. RateLimit is also set
// when Submit returns an error, if the limiter was consulted.
type Result struct {
	Spam         bool
	SubmissionID string
	CreatedAt    time.Time
	RateLimit    *ratelimit.Result
}

// Config holds the collaborators of an Orchestrator
type Config struct {
	Limiter       ratelimit.Limiter
	Forms         FormFinder
	Submissions   SubmissionWriter
	Limits        payload.Limits
	Spam          *spam.Engine
	Notifications *notify.Dispatcher
}

// Orchestrator sequences the intake of a submission
type Orchestrator struct {
	limiter       ratelimit.Limiter
	forms         FormFinder
	submissions   SubmissionWriter
	limits        payload.Limits
	spam          *spam.Engine
	notifications *notify.Dispatcher
}

// New creates a new Orchestrator
func New(conf Config) *Orchestrator {
	return &Orchestrator{
		limiter:       conf.Limiter,
		forms:         conf.Forms,
		submissions:   conf.Submissions,
		limits:        conf.Limits,
		spam:          conf.Spam,
		notifications: conf.Notifications,
	}
}

// Submit handles one submission. Rejections are returned as *apperr.Error;
// spam is stored and reported through Result.Spam, never rejected.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (Result, error) {
	var res Result
	logger := log.WithFields(log.Fields{"form_id": req.FormID, "ip": req.ClientIP})

	if o.limiter != nil {
		rl, err := o.limiter.Allow(ctx, ratelimit.Key(req.ClientIP, req.FormID))
		if err != nil {
			logger.WithError(err).Warn("ratelimit.unavailable")
		} else {
			res.RateLimit = &rl
			if !rl.Allowed {
				logger.Info("submission.rate_limited")
				return res, apperr.RateLimited()
			}
		}
	}

	form, err := o.forms.GetActive(ctx, req.FormID)
	if err != nil {
		var nf model.NotFoundError
		if errors.As(err, &nf) {
			return res, apperr.NotFound(MsgFormNotFound)
		}
		return res, errors.WithStack(err)
	}

	env, err := o.limits.Parse(req.Body)
	if err != nil {
		return res, err
	}
	if err = schema.ValidateError(env.Data, form.Schema); err != nil {
		return res, err
	}

	decision := o.spam.Classify(
		ctx, spam.Input{
			Honeypot: env.Honeypot,
			Token:    env.RecaptchaToken,
			ClientIP: req.ClientIP,
		},
	)

	encoded, err := env.Data.Encode()
	if err != nil {
		return res, errors.WithStack(err)
	}
	sub := &model.Submission{
		FormID:     form.ID,
		IP:         req.ClientIP,
		Payload:    datatypes.JSON(encoded),
		IsSpam:     decision.Spam,
		SpamReason: decision.ReasonPtr(),
	}
	if req.UserAgent != "" {
		ua := req.UserAgent
		sub.UserAgent = &ua
	}
	if err = o.submissions.Create(ctx, sub); err != nil {
		return res, errors.WithStack(err)
	}
	res.Spam = decision.Spam
	res.SubmissionID = sub.ID
	res.CreatedAt = sub.CreatedAt

	if decision.Spam {
		logger.WithFields(
			log.Fields{
				"submission_id": sub.ID,
				"reason":        decision.Reason,
			},
		).Info("submission.spam")
		return res, nil
	}
	logger.WithField("submission_id", sub.ID).Info("submission.accepted")

	msg, err := notify.SubmissionMessage(form.NotifyEmail, form.Name, sub.ID, env.Data)
	if err != nil {
		logger.WithError(err).Error("notification.failed")
		return res, nil
	}
	o.notifications.Dispatch(sub.ID, msg)
	return res, nil
}
