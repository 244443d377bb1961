package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_LevelOverride(t *testing.T) {
	l, err := New("pdpj-proxy", "prod", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_InvalidLevelKeepsDefault(t *testing.T) {
	l, err := New("pdpj-proxy", "dev", "loud")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel), "development config defaults to debug")
}

func TestL_LazyInit(t *testing.T) {
	log, sugar = nil, nil
	assert.NotNil(t, L())
	assert.NotNil(t, S())
}
