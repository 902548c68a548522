package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	defer func() { os.Stdout = old }()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() { io.Copy(&buf, r); close(done) }()

	runErr := fn()
	w.Close()
	<-done
	return buf.String(), runErr
}

func TestMissingCommand(t *testing.T) {
	err := run(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing command")
}

func TestUnknownCommand(t *testing.T) {
	err := run([]string{"explode"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestHelp(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return run([]string{"help", "serve"})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "serve FLAGS")
}

func TestPrintSchema(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return run([]string{"print-schema"})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "type Query")
	assert.Contains(t, out, "scalar UInt64")
}

func TestServeRequiresEndpoint(t *testing.T) {
	err := run([]string{"serve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream.endpoint")
}
