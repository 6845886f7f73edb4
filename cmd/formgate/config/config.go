// Package config loads the formgate configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/formgate/formgate/internal/payload"
)

// Config holds the configuration for formgate
type Config struct {
	Server           serverConf     `yaml:"server"`
	Storage          storageConf    `yaml:"storage"`
	Logging          loggingConf    `yaml:"logging"`
	RateLimit        rateLimitConf  `yaml:"rate_limit"`
	SubmissionLimits payload.Limits `yaml:"submission_limits"`
	Spam             spamConf       `yaml:"spam"`
	Email            emailConf      `yaml:"email"`
	API              apiConf        `yaml:"api"`
}

type validator interface {
	validate() error
}

func (c *Config) validate() error {
	sections := map[string]validator{
		"server":     &c.Server,
		"storage":    &c.Storage,
		"logging":    &c.Logging,
		"rate_limit": &c.RateLimit,
		"spam":       &c.Spam,
		"email":      &c.Email,
		"api":        &c.API,
	}
	for name, v := range sections {
		if err := v.validate(); err != nil {
			return errors.Wrapf(err, "invalid '%s' config", name)
		}
	}
	return nil
}

var c *Config

// FileName is the name of the config file searched in possibleConfigLocations
const FileName = "config.yaml"

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/formgate",
	"/formgate/config",
	"/etc/formgate",
}

func defaultConfig() *Config {
	return &Config{
		Server:    defaultServerConf,
		Storage:   defaultStorageConf,
		Logging:   defaultLoggingConf,
		RateLimit: defaultRateLimitConf,
		Spam:      defaultSpamConf,
		Email:     defaultEmailConf,
		API:       defaultAPIConf,
	}
}

// Get returns the loaded Config
func Get() *Config {
	return c
}

// Load reads the config file and validates it. If filename is empty the
// possible config locations are searched; if no file is found the defaults
// are used. Load exits the program on an invalid config.
func Load(filename string) {
	data, err := readConfigFile(filename)
	if err != nil {
		log.Fatal(err)
	}
	conf, err := Parse(data)
	if err != nil {
		log.Fatal(err)
	}
	c = conf
}

// Parse parses and validates a config file. Environment variables
// referenced as ${VAR} are expanded before parsing.
func Parse(data []byte) (*Config, error) {
	conf := defaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), conf); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func readConfigFile(filename string) ([]byte, error) {
	if filename != "" {
		data, err := os.ReadFile(filename)
		return data, errors.WithStack(err)
	}
	for _, dir := range possibleConfigLocations {
		p := filepath.Join(dir, FileName)
		if fileutils.FileExists(p) {
			log.WithField("file", p).Debug("found config file")
			data, err := os.ReadFile(p)
			return data, errors.WithStack(err)
		}
	}
	log.Warn("no config file found, using defaults")
	return nil, nil
}
