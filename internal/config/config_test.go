package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/smashmate")
	t.Setenv("DISCORD_CLIENT_ID", "client")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_REDIRECT_URI", "")
	t.Setenv("TOKEN_TTL_HOURS", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.WebUIBaseURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_REDIRECT_URI", "https://smash.example.com/api/auth/callback")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("COOKIE_SECURE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://smash.example.com", cfg.WebUIBaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.CookieSecure)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"missing database", "DATABASE_URL", ""},
		{"missing client id", "DISCORD_CLIENT_ID", ""},
		{"bad ttl", "TOKEN_TTL_HOURS", "zero"},
		{"bad cookie flag", "COOKIE_SECURE", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestExtractBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000", extractBaseURL("::bad"))
	assert.Equal(t, "https://x.example.com:8443", extractBaseURL("https://x.example.com:8443/cb"))
}
