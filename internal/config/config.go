// Package config holds the configuration of a simulated kernel: the
// synchronization policy, the donation depth bound and logging settings.
//
// A Config is a plain value passed to the scheduler and the primitive set at
// construction, so two kernels in the same process can run different
// policies side by side.
//
// Options can be given as a GORACE-style list of key=value pairs, either
// directly to Parse or through the KSYNCH_OPTIONS environment variable:
//
//	KSYNCH_OPTIONS="policy=mlfqs depth=8 log=debug format=json"
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kolkov/ksynch/internal/logging"
)

// EnvOptions is the environment variable read by FromEnv.
const EnvOptions = "KSYNCH_OPTIONS"

// DefaultDonationDepth bounds how many lock hops a donation follows.
const DefaultDonationDepth = 8

// ErrInvalidOption is returned for malformed or unknown options.
var ErrInvalidOption = errors.New("invalid option")

// Policy selects how locks interact with priorities.
type Policy int

const (
	// PolicyDonation enables priority donation through locks.
	PolicyDonation Policy = iota
	// PolicyMLFQS disables donation, as used by feedback-queue scheduling.
	PolicyMLFQS
)

// String returns the option spelling of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyDonation:
		return "donation"
	case PolicyMLFQS:
		return "mlfqs"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses "donation" or "mlfqs".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "donation", "priority":
		return PolicyDonation, nil
	case "mlfqs":
		return PolicyMLFQS, nil
	}
	return 0, fmt.Errorf("%w: unknown policy %q", ErrInvalidOption, s)
}

// Config is the kernel configuration.
type Config struct {
	// Policy selects donation or non-donation locks.
	Policy Policy

	// MaxDonationDepth bounds donation propagation along a chain of held
	// locks. Zero means unbounded; a revisited thread always stops the walk.
	MaxDonationDepth int

	// LogLevel is the minimum level logged.
	LogLevel logging.LogLevel

	// LogFormat is "text" or "json".
	LogFormat string
}

// Default returns the donation policy with the standard depth bound and
// INFO text logging.
func Default() Config {
	return Config{
		Policy:           PolicyDonation,
		MaxDonationDepth: DefaultDonationDepth,
		LogLevel:         logging.LevelInfo,
		LogFormat:        "text",
	}
}

// Parse applies a whitespace separated key=value list on top of Default.
//
// Recognized keys: policy, depth, log, format.
func Parse(options string) (Config, error) {
	cfg := Default()
	return cfg, cfg.apply(options)
}

// FromEnv parses KSYNCH_OPTIONS.
func FromEnv() (Config, error) {
	cfg, err := Parse(os.Getenv(EnvOptions))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", EnvOptions, err)
	}
	return cfg, nil
}

// Set applies a single option.
func (c *Config) Set(key, value string) error {
	switch key {
	case "policy":
		p, err := ParsePolicy(value)
		if err != nil {
			return err
		}
		c.Policy = p
	case "depth":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: depth %q: %v", ErrInvalidOption, value, err)
		}
		c.MaxDonationDepth = n
	case "log":
		l, err := logging.ParseLevel(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOption, err)
		}
		c.LogLevel = l
	case "format":
		c.LogFormat = value
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidOption, key)
	}
	return c.Validate()
}

func (c *Config) apply(options string) error {
	for _, field := range strings.Fields(options) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not key=value", ErrInvalidOption, field)
		}
		if err := c.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Policy != PolicyDonation && c.Policy != PolicyMLFQS {
		return fmt.Errorf("%w: %s", ErrInvalidOption, c.Policy)
	}
	if c.MaxDonationDepth < 0 {
		return fmt.Errorf("%w: depth %d is negative", ErrInvalidOption, c.MaxDonationDepth)
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: format %q", ErrInvalidOption, c.LogFormat)
	}
	return nil
}

// Logging returns the logger settings of c.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}
