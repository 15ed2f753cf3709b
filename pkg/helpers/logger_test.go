package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("svc", "development", "").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("svc", "production", "").GetLevel())
	assert.Equal(t, logrus.WarnLevel, NewLogger("svc", "production", "warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("svc", "production", "loud").GetLevel())
}

func TestLogError_StampsServiceAndError(t *testing.T) {
	logger := NewLogger("svc", "production", "")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	LogError(logger, "boom", errors.New("db down"), logrus.Fields{"user_id": "u1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["msg"])
	assert.Equal(t, "db down", entry["error"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "svc", entry["app"])
	assert.Equal(t, "production", entry["env"])
}
