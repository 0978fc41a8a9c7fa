package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitLoggerReadsLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	InitLogger()
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
}

func TestInitLoggerDefaultsToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "not-a-level")
	InitLogger()
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
