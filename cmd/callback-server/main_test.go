package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "warn")

	zapCfg := loggerConfig()
	assert.Equal(t, "json", zapCfg.Encoding)
	assert.Equal(t, zap.WarnLevel, zapCfg.Level.Level())

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, zap.InfoLevel, loggerConfig().Level.Level())
}

func TestInitLogger_BadOutputPath(t *testing.T) {
	zapCfg := loggerConfig()
	zapCfg.ErrorOutputPaths = []string{filepath.Join(t.TempDir(), "missing", "errors.log")}

	logger, err := buildLogger(zapCfg)
	require.Error(t, err)
	assert.Nil(t, logger)
}
