package config

import (
	"net/mail"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/formgate/formgate/internal/notify"
)

type emailConf struct {
	ResendAPIKey string                  `yaml:"resend_api_key"`
	From         string                  `yaml:"from"`
	Endpoint     string                  `yaml:"endpoint"`
	Timeout      duration.DurationOption `yaml:"timeout"`
}

func (c *emailConf) validate() error {
	if c.Timeout.Duration() < 0 {
		return errors.New("timeout must not be negative")
	}
	if _, err := mail.ParseAddress(c.From); err != nil {
		return errors.Wrapf(err, "invalid from address '%s'", c.From)
	}
	return nil
}

// ResendConf returns the notify.ResendConf for this configuration
func (c emailConf) ResendConf() notify.ResendConf {
	return notify.ResendConf{
		APIKey:   c.ResendAPIKey,
		From:     c.From,
		Endpoint: c.Endpoint,
		Timeout:  c.Timeout.Duration(),
	}
}

var defaultEmailConf = emailConf{
	From:     notify.DefaultFrom,
	Endpoint: notify.DefaultResendEndpoint,
	Timeout:  duration.DurationOption(notify.DefaultTimeout),
}
