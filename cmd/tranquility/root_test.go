package main

import (
	"testing"

	"github.com/fwojciec/tranquility/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json at warn", func(t *testing.T) {
		t.Parallel()
		l, err := newLogger(config.LogConfig{Level: "warn", Format: "json"})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("console at debug", func(t *testing.T) {
		t.Parallel()
		l, err := newLogger(config.LogConfig{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("bad level", func(t *testing.T) {
		t.Parallel()
		_, err := newLogger(config.LogConfig{Level: "loud", Format: "console"})
		assert.Error(t, err)
	})
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "chat", "analyze"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestRun_AnalyzeRequiresPattern(t *testing.T) {
	t.Parallel()
	err := run([]string{"analyze"})
	assert.Error(t, err)
}
