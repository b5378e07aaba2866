// Package logger provides structured logging for slotpipe using zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers and run-scoped loggers that carry the pipeline run id and the
// active trace/span ids.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("producer")
//	log.Info("source exhausted", logger.Fields("items", n))
package logger
