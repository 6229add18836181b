package quizsmith

import "go.uber.org/zap"

var (
	logger      = zap.NewNop().Sugar()
	verboseMode bool
)

// NewLogger builds a zap logger for the given environment
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// SetLogger installs the logger used by the package
func SetLogger(l *zap.Logger) {
	logger = l.Sugar()
}

// Logger returns the package logger
func Logger() *zap.SugaredLogger {
	return logger
}

// SetVerbose sets the global verbose mode
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// VerboseLog logs only when verbose mode is enabled
func VerboseLog(format string, v ...interface{}) {
	if verboseMode {
		logger.Debugf(format, v...)
	}
}
