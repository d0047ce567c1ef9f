package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	t.Setenv("DEBUG", "")

	var buf bytes.Buffer
	log := New(&buf, false)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	log.Debug("hidden")
	log.WithField("character", "1/3").Info("Processing character")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "Processing character")
	assert.Contains(t, buf.String(), "character")

	assert.Equal(t, logrus.DebugLevel, New(&buf, true).GetLevel())

	t.Setenv("DEBUG", "1")
	assert.Equal(t, logrus.DebugLevel, New(&buf, false).GetLevel())
}
