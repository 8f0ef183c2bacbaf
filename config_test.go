package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "OUTPUT_DIR", "DISPLAY_NUM", "DEVTOOLS_PORT",
		"READINESS_MODE", "READINESS_WAIT_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/tmp/recordings", cfg.OutputDir)
	assert.Equal(t, ":99", cfg.Display)
	assert.Equal(t, 9222, cfg.DevToolsPort)
	assert.Equal(t, "strong", cfg.ReadinessMode)
	assert.Equal(t, 15, cfg.ReadinessWait)
}

func TestLoadConfigClampsWeakWait(t *testing.T) {
	t.Setenv("READINESS_WAIT_SECONDS", "2")
	assert.Equal(t, 5, LoadConfig().ReadinessWait)

	t.Setenv("READINESS_WAIT_SECONDS", "120")
	assert.Equal(t, 30, LoadConfig().ReadinessWait)

	t.Setenv("READINESS_WAIT_SECONDS", "20")
	assert.Equal(t, 20, LoadConfig().ReadinessWait)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("PAGE_RECORDER_TEST_KEY", "value")
	assert.Equal(t, "value", getEnv("PAGE_RECORDER_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", getEnv("PAGE_RECORDER_TEST_MISSING", "fallback"))

	t.Setenv("PAGE_RECORDER_TEST_INT", "not-a-number")
	assert.Equal(t, 7, getEnvInt("PAGE_RECORDER_TEST_INT", 7))
}
