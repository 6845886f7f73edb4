package config

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/formgate
//	    stderr: false
//	  internal:
//	    dir: /var/log/formgate
//	    stderr: true
//	    level: INFO
//	    json: true
type loggingConf struct {
	Access   LoggerConf         `yaml:"access"`
	Internal InternalLoggerConf `yaml:"internal"`
}

// InternalLoggerConf configures application-internal logging.
// Level accepts standard log levels (e.g. DEBUG, INFO, WARN, ERROR).
type InternalLoggerConf struct {
	LoggerConf `yaml:",inline"`

	Level string `yaml:"level"`
	// JSON switches the formatter from text to json
	JSON bool `yaml:"json"`
}

// LoggerConf holds configuration related to logging
type LoggerConf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

func checkLoggingDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (l *loggingConf) validate() error {
	if err := checkLoggingDirExists(l.Access.Dir); err != nil {
		return err
	}
	if err := checkLoggingDirExists(l.Internal.Dir); err != nil {
		return err
	}
	if _, err := log.ParseLevel(strings.ToLower(l.Internal.Level)); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

var defaultLoggingConf = loggingConf{
	Access: LoggerConf{
		StdErr: true,
	},
	Internal: InternalLoggerConf{
		LoggerConf: LoggerConf{
			StdErr: true,
		},
		Level: "INFO",
	},
}
