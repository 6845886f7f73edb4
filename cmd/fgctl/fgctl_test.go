package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("storage:\n  data_dir: "+dir+"\n"), 0o600))
	configFile = conf

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = run(t, "register", "--email", "Owner@Example.com", "--name", "Owner")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`api key: fgk_live_[0-9a-f]{48}`), out)

	_, err = run(t, "register", "--email", "owner@example.com")
	assert.Error(t, err)
	_, err = run(t, "register", "--email", "nope")
	assert.ErrorContains(t, err, "email")

	out, err = run(t, "keys", "issue", "--email", "owner@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "api key: fgk_live_")

	out, err = run(t, "keys", "list", "--email", "owner@example.com")
	require.NoError(t, err)
	assert.Len(t, regexp.MustCompile(`fgk_live_`).FindAllString(out, -1), 2)

	out, err = run(t, "plan", "set", "unpaid", "--email", "owner@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "owner@example.com is now on plan unpaid")

	_, err = run(t, "plan", "set", "gold", "--email", "owner@example.com")
	assert.Error(t, err)
	_, err = run(t, "keys", "list", "--email", "nobody@example.com")
	assert.Error(t, err)
}
