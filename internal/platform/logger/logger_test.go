package logger_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/todo-api/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	log, err := logger.Setup("debug")
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}

func TestSetupInvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := logger.Setup("verbose")
	require.NoError(t, err)
	assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
}

func TestFromContext(t *testing.T) {
	attached := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := logger.WithLogger(context.Background(), attached)

	assert.Same(t, attached, logger.FromContext(ctx))

	// Without an attached logger we fall back to the default.
	assert.NotNil(t, logger.FromContext(context.Background()))
}

func TestFromContextOrDefault(t *testing.T) {
	def := slog.New(slog.NewTextHandler(os.Stderr, nil))

	assert.Same(t, def, logger.FromContextOrDefault(context.Background(), def))

	attached := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := logger.WithLogger(context.Background(), attached)
	assert.Same(t, attached, logger.FromContextOrDefault(ctx, def))
}
