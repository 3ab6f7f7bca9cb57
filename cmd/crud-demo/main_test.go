package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ConfigError(t *testing.T) {
	t.Setenv("CRUDDEMO_DEMO__EXAMPLES", "bogus")
	out := &bytes.Buffer{}

	err := run(context.Background(), out)

	require.Error(t, err, "run() should fail when the configuration is invalid")
	require.Contains(t, err.Error(), "config validation failed")
	require.Empty(t, out.String(), "nothing should be printed before the demonstrations start")
}

func TestRun_DatabaseUnreachable(t *testing.T) {
	t.Setenv("CRUDDEMO_DATABASE__HOST", "127.0.0.1")
	t.Setenv("CRUDDEMO_DATABASE__PORT", "1")
	t.Setenv("CRUDDEMO_OBSERVABILITY__LOGGING__LEVEL", "error")
	out := &bytes.Buffer{}

	err := run(context.Background(), out)

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to migrate database")
	require.Empty(t, out.String())
}

func TestReportFailure(t *testing.T) {
	var logs bytes.Buffer

	reportFailure(&logs, errors.New("update_user: boom"))

	line := logs.String()
	require.Equal(t, 1, strings.Count(line, "\n"), "the failure should be logged exactly once")
	require.Contains(t, line, "ERR")
	require.Contains(t, line, "An error occurred")
	require.Contains(t, line, "update_user: boom")
}
