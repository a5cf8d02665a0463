/*
Package logx wraps zerolog with the process-wide logger used by the relay.

Development builds log human-readable, colored lines to stderr at Debug level;
every other environment emits JSON to stdout at Info level. The package-level
helpers accept an optional list of key-value pairs that become structured fields.
*/
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger installs the global logger for the given environment.
func InitGlobalLogger(isDevelopment bool) {
	if isDevelopment {
		setGlobal(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}, zerolog.DebugLevel)
		return
	}

	setGlobal(os.Stdout, zerolog.InfoLevel)
}

// InitWithWriter installs a global logger writing JSON to w. Tests use it to
// capture or silence output.
func InitWithWriter(w io.Writer, level zerolog.Level) {
	setGlobal(w, level)
}

func setGlobal(w io.Writer, level zerolog.Level) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	log.Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// checkFields drops an odd-length field list instead of letting zerolog
// pair a key with the wrong value.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 == 0 {
		return fields
	}

	Logger().Warn().
		Int("fields_count", len(fields)).
		Str("log_level", level).
		Msgf("logx.%s called with an odd number of fields: %v. Fields ignored.", level, fields)
	return nil
}

// Debug logs msg at Debug level.
func Debug(msg string, fields ...any) {
	Logger().Debug().
		Fields(checkFields("Debug", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Info logs msg at Info level.
func Info(msg string, fields ...any) {
	Logger().Info().
		Fields(checkFields("Info", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn logs msg at Warn level.
func Warn(msg string, fields ...any) {
	Logger().Warn().
		Fields(checkFields("Warn", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error logs err and msg at Error level.
func Error(err error, msg string, fields ...any) {
	Logger().Error().
		Err(err).
		Fields(checkFields("Error", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal logs err and msg, then exits the process with status 1.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().
		Err(err).
		Fields(checkFields("Fatal", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}
