package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	newCtx := WithContext(ctx, logger)

	retrieved := FromContext(newCtx)
	assert.Equal(t, logger, retrieved)
}

func TestFromContext_NotFound(t *testing.T) {
	ctx := context.Background()

	logger := FromContext(ctx)
	assert.NotNil(t, logger)
	// Should return a no-op logger, not panic
	logger.Info("this should not panic")
}

func TestWithRequestID(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	requestID := "req-12345"

	newCtx, newLogger := WithRequestID(ctx, logger, requestID)

	assert.NotNil(t, newLogger)
	assert.Equal(t, requestID, GetRequestID(newCtx))
	assert.Equal(t, newLogger, FromContext(newCtx))
}

func TestGetRequestID_NotFound(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not-a-logger")

	logger := FromContext(ctx)
	assert.NotNil(t, logger)
	logger.Info("should not panic")
}

func TestMultipleWithRequestID(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, logger, "first")
	ctx, _ = WithRequestID(ctx, logger, "second")

	// Latest request ID wins
	assert.Equal(t, "second", GetRequestID(ctx))
}
