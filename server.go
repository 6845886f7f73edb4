package formgate

import (
	"time"
)

// Defaults for the server configuration
const (
	DefaultPort      = 3000
	DefaultBodyLimit = 100 * 1024
	// ShutdownTimeout bounds the graceful shutdown
	ShutdownTimeout = 10 * time.Second
)

// ServerConf configures the http server
type ServerConf struct {
	IPListen          string   `yaml:"ip_listen"`
	Port              int      `yaml:"port"`
	TLS               TLSConf  `yaml:"tls"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
	ForwardedIPHeader string   `yaml:"forwarded_ip_header"`
	// BodyLimit is the maximum accepted request body size in bytes
	BodyLimit int `yaml:"body_limit"`
}

// TLSConf configures tls for the http server
type TLSConf struct {
	Enabled      bool   `yaml:"enabled"`
	RedirectHTTP bool   `yaml:"redirect_http"`
	Cert         string `yaml:"cert"`
	Key          string `yaml:"key"`
}
