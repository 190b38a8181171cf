package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Development environments get debug output;
// level, when set, overrides the environment default.
func New(env, level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if isDevelopment(env) {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	config.InitialFields = map[string]interface{}{"env": env}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}
