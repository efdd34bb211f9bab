package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/multioauth/internal/pkg/logger"
)

func TestResolveLogFile(t *testing.T) {
	assert.Equal(t, "", resolveLogFile("", false))
	assert.Equal(t, "/var/log/oauth.log", resolveLogFile("/var/log/oauth.log", true))
	assert.Equal(t, logger.GetDefaultLogFile("server"), resolveLogFile("", true))
	assert.Equal(t, "server.log", filepath.Base(resolveLogFile("", true)))
}

func TestCommandLoggerNamesSubcommand(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	root := newRootCommand()
	sub, _, err := root.Find([]string{"strategy", "delete"})
	require.NoError(t, err)

	commandLogger(sub).Info("strategy deleted")
	assert.Contains(t, buf.String(), `"command":"server strategy delete"`)
}
