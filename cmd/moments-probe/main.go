// Command moments-probe samples the moments pipeline and verifies a running
// service against its output guarantees.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/momentproxy/internal/bootstrap"
	"github.com/okian/momentproxy/internal/config"
	"github.com/okian/momentproxy/internal/probe"
	"github.com/okian/momentproxy/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests    = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

var exit = os.Exit

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logFile string
		verbose bool
		closeLog = func() error { return nil }
	)

	root := &cobra.Command{
		Use:           "moments-probe",
		Short:         "Sample and verify the moments proxy",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load environment variables from .env file, if present
			_ = godotenv.Load()

			c, err := probe.SetupLogging(logFile, verbose)
			if err != nil {
				return err
			}
			closeLog = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = closeLog()
		},
	}
	root.PersistentFlags().StringVar(&logFile, "log", "", "Also write logs to this file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newSampleCmd(), newVerifyCmd())
	return root
}

func newSampleCmd() *cobra.Command {
	var (
		policyName string
		pretty     bool
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Run the pipeline in-process against the configured upstream and print the response body",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			svc := bootstrap.NewService(cfg, bootstrap.NewUpstream(cfg), logger.Get())
			data, err := probe.SampleJSON(ctx, svc, policyName, pretty)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().StringVarP(&policyName, "policy", "p", "", "Policy to run (default: configured policy)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	cfg := &probe.Config{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Send concurrent requests to a running service and check every response",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTestTimeout)
			defer cancel()
			_, err := probe.Run(ctx, cfg)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.StringVar(&cfg.Path, "path", probe.DefaultPath, "Moments route")
	f.StringVarP(&cfg.Policy, "policy", "p", "", "Policy query parameter")
	f.IntVarP(&cfg.Requests, "requests", "n", defaultRequests, "Number of requests to send")
	f.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.IntVar(&cfg.MaxCount, "max", 0, "Fail when a response has more listings than this (0 disables)")
	f.StringVarP(&cfg.OutputFile, "output", "o", "", "Write collected samples to this JSON file")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	}
	return cmd
}
