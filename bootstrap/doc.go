// Package bootstrap runs a slotpipe binary through a uniform lifecycle.
//
// An App owns the typed config, the logger and a component registry. RunTask
// starts every registered component, runs one finite task, then stops the
// components in reverse order within a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(pool)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return pool.WaitForFinish()
//	})
//
// SIGINT and SIGTERM cancel the task context. What the task does with the
// cancellation is up to it.
package bootstrap
