package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/formgate/formgate"
	"github.com/formgate/formgate/cmd/formgate/config"
	"github.com/formgate/formgate/internal/credential"
	"github.com/formgate/formgate/internal/intake"
	"github.com/formgate/formgate/internal/logger"
	"github.com/formgate/formgate/internal/notify"
	"github.com/formgate/formgate/internal/spam"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	logger.Init()
	log.Info("Loaded Config")
	c := config.Get()

	store, backs, err := config.LoadStorageBackends(c.Storage)
	if err != nil {
		log.Fatal(err)
	}

	spamEngine := spam.NewRecaptchaEngine(c.Spam.RecaptchaConf())
	if !spamEngine.VerificationEnabled() {
		log.Warn("reCAPTCHA secret not configured, only the honeypot check is active")
	}
	notifications := notify.NewResendDispatcher(c.Email.ResendConf())
	if !notifications.Enabled() {
		log.Warn("Resend api key not configured, notification emails are disabled")
	}

	server, err := formgate.NewServer(
		c.Server.ServerConf, formgate.Services{
			Storage: store,
			Intake: intake.New(
				intake.Config{
					Limiter:       c.RateLimit.NewLimiter(),
					Forms:         backs.Forms,
					Submissions:   backs.Submissions,
					Limits:        c.SubmissionLimits,
					Spam:          spamEngine,
					Notifications: notifications,
				},
			),
			Credentials:   credential.NewManager(backs.Users, backs.APIKeys),
			Forms:         backs.Forms,
			Submissions:   backs.Submissions,
			Notifications: notifications,
			AccessLog:     logger.AccessLogWriter(),
		}, c.API.Options(),
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Info("Added Endpoints")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = server.Start(ctx); err != nil {
		log.WithError(err).Error("server stopped")
	}
	if err = store.Close(); err != nil {
		log.WithError(err).Error("could not close database")
	}
}
