package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/formgate/formgate/internal/spam"
)

type spamConf struct {
	// RecaptchaSecret enables token verification; without it only the
	// honeypot check runs
	RecaptchaSecret string                  `yaml:"recaptcha_secret"`
	VerifyURL       string                  `yaml:"verify_url"`
	Timeout         duration.DurationOption `yaml:"timeout"`
}

func (c *spamConf) validate() error {
	if c.Timeout.Duration() < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// RecaptchaConf returns the spam.RecaptchaConf for this configuration
func (c spamConf) RecaptchaConf() spam.RecaptchaConf {
	return spam.RecaptchaConf{
		Secret:  c.RecaptchaSecret,
		URL:     c.VerifyURL,
		Timeout: c.Timeout.Duration(),
	}
}

var defaultSpamConf = spamConf{
	VerifyURL: spam.DefaultRecaptchaURL,
	Timeout:   duration.DurationOption(spam.DefaultRecaptchaTimeout),
}
