package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"plant-shop/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInterface_Contract(t *testing.T) {
	var _ Logger = NewLogger()
	var _ Logger = NewLoggerWithConfig("info", "json")
	var _ Logger = NewNopLogger()
}

func TestLogrusLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, "debug", "json")

	ctx := context.Background()
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, "user1")
	ctx = context.WithValue(ctx, contextkeys.RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, contextkeys.CollectionKey, "products")

	log.WithContext(ctx).Info("listed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "listed", entry["msg"])
	assert.Equal(t, "user1", entry["user_id"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "products", entry["collection"])
}

func TestLogrusLogger_WithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, "info", "json")

	log.WithComponent("catalog").WithFields(map[string]interface{}{"documentId": "abc"}).Warnf("deleted %d", 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "catalog", entry["component"])
	assert.Equal(t, "abc", entry["documentId"])
	assert.Equal(t, "deleted 1", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
}

func TestLogrusLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, "error", "text")

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_WithLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant-shop.log")
	t.Setenv("LOG_FILE", path)

	log := NewLogger()
	assert.NotNil(t, log)
}
