// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

func newRootCmd() (rootCmd *cobra.Command) {
	// Environment variables provide the flag defaults, so flags win.
	cfg, cfgErr := loadConfig()
	if cfgErr != nil {
		cfg = config{}
	}
	var spinnerInterval time.Duration

	rootCmd = &cobra.Command{
		Use:     "orphandig [flags]",
		Short:   "orphandig finds npm packages whose maintainers' sole e-mail domain doesn't resolve anymore",
		Version: "0.9",
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			if spinnerInterval < 10*time.Millisecond {
				return errors.New("--spinner must be at least 10ms")
			}
			return cfg.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Debug {
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			}
			cmd.SilenceUsage = true
			return ScanAndReport(cmd.Context(), cfg, spinnerInterval,
				cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	// Sets up the flags.
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug,
		"enable debugging output")
	flags.IntVar(&cfg.APIWorkers, "api-workers", cfg.APIWorkers,
		"number of parallel package metadata fetches")
	flags.IntVar(&cfg.DNSWorkers, "dns-workers", cfg.DNSWorkers,
		"number of parallel DNS lookups per resolver")
	flags.StringSliceVar(&cfg.Resolvers, "resolver", cfg.Resolvers,
		"DNS resolver \"host:port\" to ask, in order; can be repeated")
	flags.DurationVar(&cfg.DNSTimeout, "dns-timeout", cfg.DNSTimeout,
		"timeout of a single DNS exchange")
	flags.StringVar(&cfg.ListingURL, "listing-url", cfg.ListingURL,
		"URL of the bulk listing of all package names")
	flags.StringVar(&cfg.RegistryURL, "registry-url", cfg.RegistryURL,
		"base URL of package metadata documents")
	flags.DurationVar(&cfg.Backoff, "backoff", cfg.Backoff,
		"initial delay before retrying a rate-limited request")
	flags.DurationVar(&cfg.MaxBackoff, "max-backoff", cfg.MaxBackoff,
		"maximum delay before retrying a rate-limited request")
	flags.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries,
		"number of retries of a rate-limited request; negative for unlimited")
	flags.Float64Var(&cfg.Rate, "rate", cfg.Rate,
		"maximum metadata requests per second; 0 for unlimited")
	flags.BoolVar(&cfg.Registrable, "registrable", cfg.Registrable,
		"reduce maintainer domains to their registrable domains")
	flags.BoolVar(&cfg.Progress, "progress", cfg.Progress,
		"show live progress on stderr")
	flags.DurationVar(&spinnerInterval, "spinner", 100*time.Millisecond,
		"progress spinner interval")
	return
}
