package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
	"github.com/qolzam/telar-recaptcha/internal/recaptcha"
)

// errVerificationFailed makes the process exit non-zero without printing usage.
var errVerificationFailed = errors.New("verification failed")

type verifyOptions struct {
	secret     string
	token      string
	remoteIP   string
	action     string
	minScore   float64
	bypassCode string
	hostname   string
	endpoint   string
	timeout    time.Duration
}

func newVerifyCmd() *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Validate a single token and print the outcome as JSON",
		Example: `  RECAPTCHA_KEY=... recaptcha verify --token "$TOKEN" --action login
  recaptcha verify --secret s --token t --min-score 0.7 --hostname example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.secret, "secret", "", "Secret key (defaults to $RECAPTCHA_KEY)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Token to validate")
	cmd.Flags().StringVar(&opts.remoteIP, "remote-ip", "", "Client IP forwarded as remoteip")
	cmd.Flags().StringVar(&opts.action, "action", "", "Expected action")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", 0.5, "Minimum acceptable score")
	cmd.Flags().StringVar(&opts.bypassCode, "bypass-code", "", "Token value that skips remote verification")
	cmd.Flags().StringVar(&opts.hostname, "hostname", "", "Required hostname")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", recaptcha.SiteVerifyURL, "siteverify URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "HTTP timeout")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *verifyOptions) error {
	secret := opts.secret
	if secret == "" {
		secret = os.Getenv("RECAPTCHA_KEY")
	}

	validator, err := recaptcha.NewValidator(
		recaptcha.Policy{
			SecretKey:  secret,
			MinScore:   opts.minScore,
			BypassCode: opts.bypassCode,
			Hostname:   opts.hostname,
		},
		recaptcha.WithEndpoint(opts.endpoint),
		recaptcha.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
	)
	if err != nil {
		return err
	}

	outcome := validator.Validate(cmd.Context(), opts.token, recaptcha.ValidateOptions{
		RemoteIP:       opts.remoteIP,
		ExpectedAction: opts.action,
	})
	log.DebugStruct(outcome)

	encoded, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

	if !outcome.Success {
		return errVerificationFailed
	}
	return nil
}
