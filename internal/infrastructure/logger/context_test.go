package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)

	assert.Equal(t, logger, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	logger := FromContext(context.Background())

	assert.NotNil(t, logger, "a bare context yields a no-op logger")
}

func TestWithRunID(t *testing.T) {
	ctx, enriched := WithRunID(context.Background(), zap.NewNop(), "run-123")

	assert.Equal(t, "run-123", GetRunID(ctx))
	assert.Equal(t, enriched, FromContext(ctx))
}

func TestGetRunID_Missing(t *testing.T) {
	assert.Empty(t, GetRunID(context.Background()))
}

func TestWithShopID(t *testing.T) {
	ctx, _ := WithShopID(context.Background(), zap.NewNop(), "1001")

	assert.Equal(t, "1001", GetShopID(ctx))
}

func TestNestedScopes(t *testing.T) {
	ctx, logger := WithRunID(context.Background(), zap.NewNop(), "run-123")
	ctx, _ = WithShopID(ctx, logger, "1001")

	assert.Equal(t, "run-123", GetRunID(ctx))
	assert.Equal(t, "1001", GetShopID(ctx))
}
