package main

import (
	"github.com/spf13/cobra"

	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
)

var verbose bool

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recaptcha",
		Short: "Validate reCAPTCHA tokens against Google's siteverify endpoint",
		Long: `recaptcha runs the same validation pipeline as the verification service:
one siteverify round trip followed by local score, hostname and action checks.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// stdout carries the JSON outcome only
			log.SetOutput(cmd.ErrOrStderr())
			log.SetDebug(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Dump the full outcome structure")
	cmd.AddCommand(newVerifyCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
