package config

import (
	"github.com/pkg/errors"

	"github.com/formgate/formgate"
)

type serverConf struct {
	formgate.ServerConf `yaml:",inline"`
}

func (c *serverConf) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.BodyLimit < 0 {
		return errors.New("body_limit must not be negative")
	}
	if c.TLS.Enabled && (c.TLS.Cert == "" || c.TLS.Key == "") {
		return errors.New("tls is enabled but cert or key is missing")
	}
	return nil
}

var defaultServerConf = serverConf{
	ServerConf: formgate.ServerConf{
		Port:      formgate.DefaultPort,
		BodyLimit: formgate.DefaultBodyLimit,
	},
}
