// Package logger wraps zerolog behind a package-level logger plus the Gin
// request and recovery middleware the server mounts globally.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var log = newLogger("info")

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	// Debug level means local development, so switch to the console writer.
	var out io.Writer = os.Stdout
	if lvl == zerolog.DebugLevel {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger()
}

// Init reconfigures the package logger. Valid levels: debug, info, warn,
// error, fatal. Called once at startup with the level from config.
func Init(level string) {
	log = newLogger(level)
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
func Fatal() *zerolog.Event { return log.Fatal() }

func Infof(format string, v ...interface{})  { log.Info().Msgf(format, v...) }
func Warnf(format string, v ...interface{})  { log.Warn().Msgf(format, v...) }
func Errorf(format string, v ...interface{}) { log.Error().Msgf(format, v...) }
func Fatalf(format string, v ...interface{}) { log.Fatal().Msgf(format, v...) }

// Get exposes the underlying zerolog.Logger for callers that need contexts.
func Get() zerolog.Logger {
	return log
}

// GinLogger logs every request with method, path, status and latency. 4xx
// responses log at warn and 5xx at error so they stand out in aggregation.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}

		event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Int("size", c.Writer.Size()).
			Msg("request")
	}
}

// GinRecovery converts panics into a logged 500 instead of killing the worker.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("panic", recovered).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Msg("panic recovered")
		c.AbortWithStatus(500)
	})
}
