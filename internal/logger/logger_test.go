package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestAppLogger_LevelFallback(t *testing.T) {
	l := NewAppLogger(&Config{LogLevel: "verbose"})
	assert.Equal(t, zapcore.InfoLevel, l.getLoggerLevel())

	l = NewAppLogger(&Config{LogLevel: "WARN"})
	assert.Equal(t, zapcore.WarnLevel, l.getLoggerLevel())
}

func TestAppLogger_InitWithRotation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "mailrelay.log")
	l := NewAppLogger(&Config{
		LogLevel: "debug",
		Rotation: RotationConfig{File: file, MaxSize: 1, MaxBackups: 1, MaxAge: 1},
	})
	l.InitLogger()
	require.NotNil(t, l.Logger())

	child := l.With(zap.String("mailbox", "inbox@acme.edu"))
	child.Infof("polled %d messages", 3)

	assert.True(t, l.Logger().Core().Enabled(zapcore.DebugLevel))
}
