package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midi2dmx/internal/config"
)

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(config.LogConf{Level: "debug"})

	require.NoError(t, err)
	assert.Equal(t, "debug", log.GetLevel())
	assert.Equal(t, "bridge", log.With(Fields{"module": "bridge"}).Data["module"])
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LogConf{Level: "loud"})

	assert.Error(t, err)
}

func TestNewLoggerEmptyLevelUsesDefault(t *testing.T) {
	for _, level := range []string{"", "  "} {
		log, err := NewLogger(config.LogConf{Level: level})

		require.NoError(t, err)
		assert.Equal(t, config.Default().Logger.Level, log.GetLevel())
	}
}

func TestModuleField(t *testing.T) {
	var out bytes.Buffer
	log, err := newLogger(config.LogConf{Level: "info"}, &out)
	require.NoError(t, err)

	log.Module("serial").Info("opened")
	log.Module("serial").Debug("hidden")

	assert.Contains(t, out.String(), "module=serial")
	assert.Contains(t, out.String(), "opened")
	assert.NotContains(t, out.String(), "hidden")
	assert.Empty(t, log.Data, "Module must not modify the parent entry")
}

func TestNewNop(t *testing.T) {
	log := NewNop()

	assert.Equal(t, "panic", log.GetLevel())
	log.Module("test").Info("discarded")
}
