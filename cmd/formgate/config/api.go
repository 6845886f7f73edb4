package config

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/formgate/formgate/api/ownerapi"
)

// apiConf holds owner API related configuration
type apiConf struct {
	// AllowedDashboardOrigins are the browser origins allowed to call /api
	AllowedDashboardOrigins []string `yaml:"allowed_dashboard_origins"`
}

func (c *apiConf) validate() error {
	origins := make([]string, 0, len(c.AllowedDashboardOrigins))
	for _, o := range c.AllowedDashboardOrigins {
		o = strings.TrimSpace(o)
		if o == "" || o == "*" {
			return errors.Errorf("invalid dashboard origin '%s'", o)
		}
		origins = append(origins, o)
	}
	c.AllowedDashboardOrigins = origins
	return nil
}

// Options returns the ownerapi.Options for this configuration
func (c apiConf) Options() ownerapi.Options {
	return ownerapi.Options{AllowedOrigins: c.AllowedDashboardOrigins}
}

var defaultAPIConf = apiConf{
	AllowedDashboardOrigins: []string{ownerapi.DefaultDashboardOrigin},
}
