// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/ilyakaznacheev/cleanenv"
)

// config is orphandig's configuration as read from the environment; command
// line flags then take precedence.
type config struct {
	Debug       bool          `env:"ORPHANDIG_DEBUG" env-default:"false" env-description:"enable debug logging"`
	APIWorkers  int           `env:"ORPHANDIG_API_WORKERS" env-default:"20" env-description:"number of parallel metadata fetches"`
	DNSWorkers  int           `env:"ORPHANDIG_DNS_WORKERS" env-default:"100" env-description:"number of parallel DNS lookups"`
	Resolvers   []string      `env:"ORPHANDIG_RESOLVERS" env-default:"8.8.8.8:53,1.1.1.1:53" env-description:"DNS resolvers to ask in order"`
	DNSTimeout  time.Duration `env:"ORPHANDIG_DNS_TIMEOUT" env-default:"2s" env-description:"timeout of a single DNS exchange"`
	ListingURL  string        `env:"ORPHANDIG_LISTING_URL" env-default:"https://replicate.npmjs.com/_all_docs" env-description:"URL of the listing of all packages"`
	RegistryURL string        `env:"ORPHANDIG_REGISTRY_URL" env-default:"https://replicate.npmjs.com/" env-description:"base URL of package metadata"`
	Backoff     time.Duration `env:"ORPHANDIG_BACKOFF" env-default:"1s" env-description:"initial delay when rate limited"`
	MaxBackoff  time.Duration `env:"ORPHANDIG_MAX_BACKOFF" env-default:"1m" env-description:"maximum delay when rate limited"`
	MaxRetries  int           `env:"ORPHANDIG_MAX_RETRIES" env-default:"10" env-description:"retries when rate limited; negative for no limit"`
	Rate        float64       `env:"ORPHANDIG_RATE" env-default:"0" env-description:"maximum metadata requests per second; 0 is unlimited"`
	Registrable bool          `env:"ORPHANDIG_REGISTRABLE" env-default:"false" env-description:"reduce maintainer domains to registrable domains"`
	Progress    bool          `env:"ORPHANDIG_PROGRESS" env-default:"false" env-description:"show live progress on stderr"`
}

// loadConfig returns the configuration from the environment, with defaults
// for unset variables.
func loadConfig() (config, error) {
	var cfg config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return config{}, errors.Wrap(err, "invalid environment configuration")
	}
	return cfg, nil
}

// validate checks the configuration for values out of range.
func (c config) validate() error {
	if c.APIWorkers < 1 || c.APIWorkers > 1000 {
		return errors.New("--api-workers out of range [1..1000]")
	}
	if c.DNSWorkers < 1 || c.DNSWorkers > 10000 {
		return errors.New("--dns-workers out of range [1..10000]")
	}
	if len(c.Resolvers) == 0 {
		return errors.New("at least one --resolver required")
	}
	if c.DNSTimeout < 10*time.Millisecond {
		return errors.New("--dns-timeout must be at least 10ms")
	}
	if c.Backoff <= 0 {
		return errors.New("--backoff must be positive")
	}
	if c.MaxBackoff < c.Backoff {
		return errors.New("--max-backoff must not be less than --backoff")
	}
	if c.Rate < 0 {
		return errors.New("--rate must not be negative")
	}
	return nil
}
