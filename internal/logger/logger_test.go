package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formgate/formgate/cmd/formgate/config"
)

func TestWriter(t *testing.T) {
	w, err := writer(config.LoggerConf{}, AccessLogFile)
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)

	dir := t.TempDir()
	w, err = writer(config.LoggerConf{Dir: dir}, AccessLogFile)
	require.NoError(t, err)
	_, err = w.Write([]byte("GET /health\n"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, AccessLogFile))
	require.NoError(t, err)
	assert.Equal(t, "GET /health\n", string(data))

	_, err = writer(config.LoggerConf{Dir: filepath.Join(dir, "missing")}, AccessLogFile)
	assert.Error(t, err)
}

func TestSetup(t *testing.T) {
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	}()

	var buf bytes.Buffer
	require.NoError(t, setup(config.InternalLoggerConf{Level: "WARN", JSON: true}, &buf))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	log.Info("hidden")
	log.WithField("form_id", "f1").Warn("submission.spam")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"submission.spam"`)
	assert.Contains(t, buf.String(), `"form_id":"f1"`)

	assert.Error(t, setup(config.InternalLoggerConf{Level: "LOUD"}, &buf))
}
