package main

import (
	"context"

	"github.com/kbukum/slotpipe/pipeline"
	"github.com/kbukum/slotpipe/server/endpoint"
	"github.com/kbukum/slotpipe/version"
)

type runStatus struct {
	RunID     string         `json:"run_id"`
	Pipeline  string         `json:"pipeline"`
	Transform string         `json:"transform"`
	Workers   int            `json:"workers"`
	Finished  bool           `json:"finished"`
	Stats     pipeline.Stats `json:"stats"`
	Version   version.Info   `json:"version"`
}

// statusFunc reports live counters for the /status endpoint.
func statusFunc(cfg *Config, pool *pipeline.Pool[[]string, []string]) endpoint.StatusFunc {
	build := version.Get()
	return func(context.Context) (any, error) {
		return runStatus{
			RunID:     pool.RunID(),
			Pipeline:  pool.Name(),
			Transform: cfg.Transform,
			Workers:   cfg.Pipeline.Workers,
			Finished:  pool.Finished(),
			Stats:     pool.Stats(),
			Version:   build,
		}, nil
	}
}
