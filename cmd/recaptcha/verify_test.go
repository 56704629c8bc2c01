package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
	"github.com/qolzam/telar-recaptcha/internal/recaptcha"
)

func runCLI(t *testing.T, args ...string) (recaptcha.Outcome, error) {
	t.Helper()
	cmd := newVerifyCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	var outcome recaptcha.Outcome
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &outcome))
	}
	return outcome, err
}

func TestVerifyCmd_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"score":0.9,"action":"login"}`))
	}))
	defer server.Close()

	outcome, err := runCLI(t, "--secret", "s", "--token", "t", "--action", "login", "--endpoint", server.URL)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestVerifyCmd_FailedOutcomeReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"score":0.3}`))
	}))
	defer server.Close()

	outcome, err := runCLI(t, "--secret", "s", "--token", "t", "--endpoint", server.URL)
	require.ErrorIs(t, err, errVerificationFailed)
	assert.Contains(t, outcome.Error, "0.3")
}

func TestVerifyCmd_Bypass(t *testing.T) {
	outcome, err := runCLI(t, "--secret", "s", "--token", "TESTCODE", "--bypass-code", "TESTCODE", "--endpoint", "http://127.0.0.1:1")
	require.NoError(t, err)
	assert.Equal(t, recaptcha.InternalAllow, outcome.Error)
}

func TestVerifyCmd_SecretFromEnv(t *testing.T) {
	t.Setenv("RECAPTCHA_KEY", "")
	_, err := runCLI(t, "--token", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key")
}

func TestRootCmd_VerboseKeepsStdoutJSON(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stdout)
		log.SetDebug(false)
	})

	root := newRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs([]string{"-v", "verify", "--secret", "s", "--token", "TESTCODE", "--bypass-code", "TESTCODE", "--endpoint", "http://127.0.0.1:1"})

	require.NoError(t, root.ExecuteContext(context.Background()))

	var outcome recaptcha.Outcome
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &outcome))
	assert.Equal(t, recaptcha.InternalAllow, outcome.Error)
	assert.Contains(t, stderr.String(), "Internal allow")
}
