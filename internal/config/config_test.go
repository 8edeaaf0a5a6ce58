package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOCAL_TIMEZONE", "UTC")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 60*time.Second, cfg.OpenAITimeout)
	assert.Equal(t, time.UTC, cfg.LocalTimezone)
}

func TestLoadInvalidTimezoneFallsBack(t *testing.T) {
	t.Setenv("LOCAL_TIMEZONE", "Mars/Olympus")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, time.Local, cfg.LocalTimezone)
}

func TestOriginsAndLevel(t *testing.T) {
	cfg := &Config{CORSOrigins: " http://a , ,http://b", LogLevel: "DEBUG"}
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Origins())
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())

	cfg.LogLevel = "loud"
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestTwilioEnabled(t *testing.T) {
	cfg := &Config{TwilioAccountSID: "AC1", TwilioAuthToken: "tok"}
	assert.False(t, cfg.TwilioEnabled())
	cfg.TwilioWhatsAppNumber = "+15550001111"
	assert.True(t, cfg.TwilioEnabled())
}
