// Package logger provides the leveled loggers used across the service.
// Pipeline code logs through these package-level loggers; anything written
// from user-controlled input must pass through SanitizeForLog first.
package logger

import (
	"log"
	"os"
)

var (
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
	Debug *log.Logger
)

func init() {
	flags := log.Ldate | log.Ltime | log.LUTC | log.Lshortfile

	Info = log.New(os.Stdout, "INFO: ", flags)
	Debug = log.New(os.Stdout, "DEBUG: ", flags)
	// Warnings and errors go to stderr so they survive stdout redirection.
	Warn = log.New(os.Stderr, "WARN: ", flags)
	Error = log.New(os.Stderr, "ERROR: ", flags)
}
