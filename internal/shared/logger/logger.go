package logger

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the server logger: production JSON encoding, switched to
// development encoding when DEBUG=true.
func NewLogger() *zap.Logger {
	config := zap.NewProductionConfig()

	if os.Getenv("DEBUG") == "true" {
		config = zap.NewDevelopmentConfig()
	}

	logger, err := config.Build()
	if err != nil {
		panic("Failed to create logger: " + err.Error())
	}

	return logger
}

// NewCLILogger builds a console logger for the command line tools, warnings
// and errors only unless verbose is set.
func NewCLILogger(verbose bool) *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.DisableStacktrace = true
	if !verbose {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	logger, err := config.Build()
	if err != nil {
		panic("Failed to create logger: " + err.Error())
	}

	return logger
}
