// Package logging provides structured logging for smaev using zap.
//
// Logging is silent by default so CLI output stays clean. Set the
// SMAEV_LOG_LEVEL environment variable to "debug", "info", "warn" or
// "error" to enable log output on stderr.
package logging
