package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GRAPH_URL", "https://graph.example.com/")
	t.Setenv("HANDLE_TTL", "")
	t.Setenv("REDIS_DB", "")

	cfg := LoadConfig()
	assert.Equal(t, "https://graph.example.com/v19.0", cfg.GraphBase())
	assert.Equal(t, 24*time.Hour, cfg.HandleTTL)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("X_DURATION", time.Minute))

	t.Setenv("X_DURATION", "45")
	assert.Equal(t, 45*time.Second, getEnvDuration("X_DURATION", time.Minute))

	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("X_DURATION", time.Minute))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("X_INT", "7")
	assert.Equal(t, 7, getEnvInt("X_INT", 1))

	t.Setenv("X_INT", "seven")
	assert.Equal(t, 1, getEnvInt("X_INT", 1))
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WHATSAPP_TOKEN, PHONE_NUMBER_ID, WABA_ID")

	cfg = &Config{WhatsAppToken: "t", PhoneNumberID: "p", WhatsAppBusinessAccountID: "w", DBDriver: "mysql"}
	assert.ErrorContains(t, cfg.Validate(), "mysql")

	cfg.DBDriver = "postgres"
	assert.NoError(t, cfg.Validate())
}
