// Command slotcat streams lines from a file or stdin through a slot
// pipeline, transforming each line on a pool of workers.
//
//	slotcat -i reads.txt -o out.txt -t revcomp -w 8
//
// Output order is not preserved. Configuration is layered: config.yml, then
// a .env file, then SLOTCAT_* environment variables, then flags.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/slotpipe/bootstrap"
	"github.com/kbukum/slotpipe/config"
	"github.com/kbukum/slotpipe/errors"
	"github.com/kbukum/slotpipe/logger"
	"github.com/kbukum/slotpipe/observability"
	"github.com/kbukum/slotpipe/pipeline"
	"github.com/kbukum/slotpipe/resilience"
	"github.com/kbukum/slotpipe/server"
	"github.com/kbukum/slotpipe/version"
)

const telemetryFlushTimeout = 5 * time.Second

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil); err != nil {
		fmt.Fprintf(os.Stderr, "slotcat: %v\n", err)
		os.Exit(1)
	}
}

// run executes one slotcat invocation. A nil log initializes the global
// logger from the loaded config.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, log *logger.Logger) error {
	f, err := parseFlags(args, stderr)
	if stderrors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if f.showVersion {
		fmt.Fprintf(stdout, "%s %s\n", serviceName, version.Get().Long())
		return nil
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, f.loaderOptions()...); err != nil {
		return err
	}
	f.apply(&cfg)

	appOpts := []bootstrap.Option{bootstrap.WithGracefulTimeout(cfg.ShutdownTimeout)}
	var poolOpts []pipeline.Option
	if log != nil {
		appOpts = append(appOpts, bootstrap.WithLogger(log))
		poolOpts = append(poolOpts, pipeline.WithLogger(log))
	}
	app, err := bootstrap.NewApp(&cfg, appOpts...)
	if err != nil {
		return err
	}
	// The pool drains on Stop; only the graceful timeout bounds it.
	app.Components.SetStopTimeout(0)

	flushTelemetry, err := observability.Setup(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := flushTelemetry(flushCtx); err != nil {
			app.Logger.Warn("telemetry flush failed", logger.ErrorFields("flush", err))
		}
	}()

	in, closeIn, err := openInput(cfg.Input, stdin)
	if err != nil {
		return err
	}
	defer closeIn()
	out, closeOut, err := openOutput(cfg.Output, stdout)
	if err != nil {
		return err
	}

	src := newLineSource(cfg.Input, in)
	sink := newLineSink(cfg.Output, out)
	pool, err := buildPool(&cfg, src, sink, poolOpts...)
	if err != nil {
		_ = closeOut()
		return err
	}

	if cfg.Server.Enabled {
		srv := server.New(cfg.Server, app.Logger)
		srv.ApplyDefaults(cfg.Name, app.Components.HealthAll, statusFunc(&cfg, pool))
		if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
			_ = closeOut()
			return err
		}
	}
	if err := app.RegisterComponent(pool); err != nil {
		_ = closeOut()
		return err
	}

	runErr := app.RunTask(ctx, func(ctx context.Context) error {
		// Nothing else finishes the run before the app stops its
		// components, so the drain is driven from here.
		go func() { _ = pool.WaitForFinish() }()
		select {
		case <-pool.Done():
			// A failed run is reported by the pool's Stop.
			return nil
		case <-ctx.Done():
			app.Logger.Info("draining before exit")
			return ctx.Err()
		}
	})

	select {
	case <-pool.Done():
	default:
		// Still draining after the graceful timeout. The consumer may be
		// writing, so the output is closed without a flush.
		_ = closeOut()
		return errors.Timeout("drain").WithCause(runErr)
	}

	poolErr := pool.WaitForFinish()
	flushErr := sink.Flush()
	if err := closeOut(); err != nil && flushErr == nil {
		flushErr = errors.SinkFailed(cfg.Output, err)
	}
	report(app.Logger, pool, sink)

	for _, err := range []error{poolErr, src.Err(), flushErr} {
		if err != nil {
			return err
		}
	}
	if runErr != nil && !stderrors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// buildPool assembles the source, transform and sink adapters for cfg.
func buildPool(cfg *Config, src pipeline.Source[string], sink pipeline.Sink[string], opts ...pipeline.Option) (*pipeline.Pool[[]string, []string], error) {
	fn, err := lookupTransform(cfg.Transform)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit.Enabled() {
		src = pipeline.Throttled(src, resilience.NewRateLimiter(cfg.RateLimit))
	}
	return pipeline.NewPool(
		cfg.Pipeline,
		pipeline.Batched(src, cfg.BatchSize),
		perLine(pipeline.Retrying(fn, cfg.Retry)),
		pipeline.Unbatched(sink),
		opts...,
	)
}

func report(log *logger.Logger, pool *pipeline.Pool[[]string, []string], sink *lineSink) {
	stats := pool.Stats()
	fields := logger.Fields(
		logger.FieldRunID, pool.RunID(),
		"batches", stats.Delivered,
		"dropped", stats.Dropped,
		"lines", sink.written,
		"max_in_flight", stats.MaxInFlight,
		"waits", stats.ProducerWaits+stats.ClaimWaits+stats.PushWaits+stats.ConsumerWaits,
	)
	log.Info("run complete", fields)
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.SourceFailed(path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.SinkFailed(path, err)
	}
	return f, f.Close, nil
}
