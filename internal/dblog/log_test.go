package dblog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSONOutputWritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	WithComponent("buffer").Info().Msg("evicted frame")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "buffer", entry["component"])
	assert.Equal(t, "evicted frame", entry["message"])
}

func TestInitWarnLevelSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	WithComponent("wal").Info().Msg("should not appear")
	assert.Empty(t, buf.Bytes())

	WithComponent("wal").Warn().Msg("should appear")
	assert.NotEmpty(t, buf.Bytes())
}
