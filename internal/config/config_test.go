package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PINATA_JWT", "jwt")
	t.Setenv("PINATA_GATEWAY", "gw.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.RegistrationMaxAttempts)
	assert.Equal(t, time.Second, cfg.RegistrationBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.RegistrationTimeout)
	assert.Equal(t, 5, cfg.UpdateMaxAttempts)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.AuthRequired)
	assert.Equal(t, "athena.events", cfg.RabbitMQExchange)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PINATA_JWT", "jwt")
	t.Setenv("PINATA_GATEWAY", "gw.example")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("REGISTRATION_MAX_ATTEMPTS", "4")
	t.Setenv("REGISTRATION_BASE_DELAY", "250")
	t.Setenv("REGISTRATION_TIMEOUT", "5s")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 4, cfg.RegistrationMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RegistrationBaseDelay)
	assert.Equal(t, 5*time.Second, cfg.RegistrationTimeout)
	assert.True(t, cfg.AuthRequired)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "complete",
			cfg:  Config{PinataJWT: "j", PinataGateway: "g", RegistrationMaxAttempts: 3, UpdateMaxAttempts: 5},
		},
		{
			name:    "missing pinata settings",
			cfg:     Config{RegistrationMaxAttempts: 3, UpdateMaxAttempts: 5},
			wantErr: []string{"PINATA_JWT is required", "PINATA_GATEWAY is required"},
		},
		{
			name:    "auth required without secret",
			cfg:     Config{PinataJWT: "j", PinataGateway: "g", AuthRequired: true, RegistrationMaxAttempts: 3, UpdateMaxAttempts: 5},
			wantErr: []string{"AUTH_JWT_SECRET is required"},
		},
		{
			name:    "zero attempts",
			cfg:     Config{PinataJWT: "j", PinataGateway: "g", UpdateMaxAttempts: 5},
			wantErr: []string{"REGISTRATION_MAX_ATTEMPTS must be at least 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, msg := range tt.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{}, parseOrigins(""))
	assert.Equal(t, []string{"a", "b"}, parseOrigins(" a ,b"))
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("X_DUR", "garbage")
	assert.Equal(t, time.Minute, getDurationEnv("X_DUR", time.Minute))
	t.Setenv("X_DUR", "1m30s")
	assert.Equal(t, 90*time.Second, getDurationEnv("X_DUR", time.Minute))
}
