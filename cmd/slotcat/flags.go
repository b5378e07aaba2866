package main

import (
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/slotpipe/config"
	"github.com/kbukum/slotpipe/wait"
)

// cliFlags holds parsed command-line values. Only flags the user actually
// set override the loaded config.
type cliFlags struct {
	fs *pflag.FlagSet

	configFile  string
	envFile     string
	showVersion bool

	input        string
	output       string
	transform    string
	workers      int
	backoff      string
	pollInterval time.Duration
	batchSize    int
	retries      int
	rate         float64
	status       bool
	statusPort   int
	logLevel     string
	logFormat    string
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{fs: pflag.NewFlagSet(serviceName, pflag.ContinueOnError)}
	fs := f.fs
	fs.SetOutput(stderr)

	fs.StringVar(&f.configFile, "config", "", "path to a config.yml")
	fs.StringVar(&f.envFile, "env-file", "", "path to a .env file")
	fs.BoolVar(&f.showVersion, "version", false, "print the version and exit")

	fs.StringVarP(&f.input, "input", "i", "-", "input file, - for stdin")
	fs.StringVarP(&f.output, "output", "o", "-", "output file, - for stdout")
	fs.StringVarP(&f.transform, "transform", "t", "upper", "line transform: upper, lower, reverse, revcomp")
	fs.IntVarP(&f.workers, "workers", "w", 0, "worker goroutines (default: number of CPUs)")
	fs.StringVar(&f.backoff, "backoff", string(wait.PolicySemaphore), "wait policy: semaphore or poll")
	fs.DurationVar(&f.pollInterval, "poll-interval", wait.DefaultPollInterval, "rescan interval for the poll policy")
	fs.IntVarP(&f.batchSize, "batch-size", "b", 1, "lines per worker call")
	fs.IntVar(&f.retries, "retries", 0, "attempts per line for retryable failures")
	fs.Float64Var(&f.rate, "rate", 0, "maximum lines read per second, 0 for unlimited")
	fs.BoolVar(&f.status, "status", false, "serve /health, /alive and /status")
	fs.IntVar(&f.statusPort, "status-port", 8080, "status server port")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *cliFlags) loaderOptions() []config.LoaderOption {
	opts := []config.LoaderOption{config.WithEnvPrefix("SLOTCAT")}
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	return opts
}

// apply overlays every flag the user set onto cfg.
func (f *cliFlags) apply(cfg *Config) {
	set := f.fs.Changed
	if set("input") {
		cfg.Input = f.input
	}
	if set("output") {
		cfg.Output = f.output
	}
	if set("transform") {
		cfg.Transform = f.transform
	}
	if set("workers") {
		cfg.Pipeline.Workers = f.workers
	}
	if set("backoff") {
		cfg.Pipeline.Backoff = wait.Policy(f.backoff)
	}
	if set("poll-interval") {
		cfg.Pipeline.PollInterval = f.pollInterval
	}
	if set("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if set("retries") {
		cfg.Retry.MaxAttempts = f.retries
	}
	if set("rate") {
		cfg.RateLimit.Rate = f.rate
	}
	if set("status") {
		cfg.Server.Enabled = f.status
	}
	if set("status-port") {
		cfg.Server.Port = f.statusPort
	}
	if set("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if set("log-format") {
		cfg.Logging.Format = f.logFormat
	}
}
