package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/logging"
)

// kernelFlags binds the options shared by every kernel-running command.
// Each flag is applied through config.Set so flags and KSYNCH_OPTIONS go
// through the same validation.
type kernelFlags struct {
	cfg config.Config
}

func newKernelFlags(fs *flag.FlagSet) (*kernelFlags, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	kf := &kernelFlags{cfg: cfg}
	kf.bind(fs, "policy", cfg.Policy.String(), "lock policy: donation or mlfqs")
	kf.bind(fs, "depth", strconv.Itoa(cfg.MaxDonationDepth), "donation propagation bound, 0 for unbounded")
	kf.bind(fs, "log", string(cfg.LogLevel), "log level: debug, info, warn, error")
	kf.bind(fs, "format", cfg.LogFormat, "log format: text or json")
	return kf, nil
}

func (kf *kernelFlags) bind(fs *flag.FlagSet, key, value, usage string) {
	fs.Func(key, fmt.Sprintf("%s (default %q)", usage, value), func(v string) error {
		return kf.cfg.Set(key, v)
	})
}

// setupLogging installs the global logger described by the configuration.
func (kf *kernelFlags) setupLogging(stderr io.Writer) error {
	lc := kf.cfg.Logging()
	lc.Output = stderr
	logging.Reset()
	return logging.Init(lc)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("ksynch "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}
