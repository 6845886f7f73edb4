// Package logger sets up the internal and the access log from the loaded
// configuration.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/formgate/formgate/cmd/formgate/config"
)

// Log file names within the configured directories
const (
	InternalLogFile = "formgate.log"
	AccessLogFile   = "access.log"
)

// Init initializes the internal logger
func Init() {
	conf := config.Get().Logging.Internal
	w, err := writer(conf.LoggerConf, InternalLogFile)
	if err != nil {
		log.WithError(err).Fatal("could not open log file")
	}
	if err = setup(conf, w); err != nil {
		log.WithError(err).Fatal("could not init logger")
	}
}

func setup(conf config.InternalLoggerConf, w io.Writer) error {
	level, err := log.ParseLevel(strings.ToLower(conf.Level))
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(w)
	if conf.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// AccessLogWriter returns the writer for the access log
func AccessLogWriter() io.Writer {
	w, err := writer(config.Get().Logging.Access, AccessLogFile)
	if err != nil {
		log.WithError(err).Fatal("could not open access log file")
	}
	return w
}

// writer returns a writer for the passed LoggerConf; without any configured
// destination stderr is used
func writer(conf config.LoggerConf, fileName string) (io.Writer, error) {
	var writers []io.Writer
	if conf.StdErr {
		writers = append(writers, os.Stderr)
	}
	if conf.Dir != "" {
		f, err := os.OpenFile(
			filepath.Join(conf.Dir, fileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644,
		)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}
