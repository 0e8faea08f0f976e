package contract

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogLevel is used when no level is configured.
const DefaultLogLevel = "warn"

// InitLogger builds the process logger for the given level and installs it
// as the zap global. Logs go to stderr so they never mix with table or file output.
func InitLogger(level string) error {
	var config zap.Config
	if level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// SyncLogger flushes any buffered log entries.
func SyncLogger() {
	_ = zap.L().Sync()
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	SyncLogger()
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning with its cause.
func LogWarn(msg string, err error) {
	zap.L().Warn(msg, zap.Error(err))
}

// LogInfo logs an informational message with structured fields.
func LogInfo(msg string, fields ...zap.Field) {
	zap.L().Info(msg, fields...)
}
