// Package logger provides structured logging for rxreduce tools using zerolog.
//
// It supports three output formats: "plain" (message and fields only, used
// for tutorial style console traces), "console" (human readable with time and
// level) and "json".
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "plain"
//
// # Usage
//
//	log := logger.New(&cfg, "playground").WithComponent("scenario")
//	log.Info("scenario finished", logger.Fields("name", "min"))
package logger
