package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidateRequiresDataDir(t *testing.T) {
	cfg := Config{LogLevel: "info"}
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := Config{DataDir: "./world", LogLevel: "verbose"}
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateAccepts(t *testing.T) {
	cfg := Config{DataDir: "./world", LogLevel: "debug"}
	assert.NoError(t, cfg.Validate())
}
