package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BITEBAY_JWT_SECRET", "test-secret")
	t.Setenv("BITEBAY_AUTH_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, AuthProviderJWT, cfg.Auth.Provider)
	assert.Equal(t, 10*time.Second, cfg.Settings.TrackingPollInterval)
	assert.Equal(t, 30*time.Second, cfg.Settings.ListPollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Settings.OTPTTL)
	assert.Equal(t, 10*time.Second, cfg.Settings.GeolocationTimeout)
	assert.Equal(t, 10, cfg.Settings.RecentOrdersLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BITEBAY_JWT_SECRET", "test-secret")
	t.Setenv("BITEBAY_ALLOWED_ORIGINS", " https://app.bitebay.in , https://admin.bitebay.in ")
	t.Setenv("BITEBAY_TRACKING_POLL", "5s")
	t.Setenv("BITEBAY_RECENT_ORDERS", "25")
	t.Setenv("BITEBAY_EMAIL_NOTIFICATIONS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.bitebay.in", "https://admin.bitebay.in"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Settings.TrackingPollInterval)
	assert.Equal(t, 25, cfg.Settings.RecentOrdersLimit)
	assert.True(t, cfg.Settings.EmailNotifications)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("BITEBAY_JWT_SECRET", "test-secret")
	t.Setenv("BITEBAY_RECENT_ORDERS", "many")
	t.Setenv("BITEBAY_OTP_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Settings.RecentOrdersLimit)
	assert.Equal(t, 10*time.Minute, cfg.Settings.OTPTTL)
}

func TestValidate(t *testing.T) {
	t.Setenv("BITEBAY_JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "BITEBAY_JWT_SECRET")

	t.Setenv("BITEBAY_AUTH_PROVIDER", AuthProviderFirebase)
	_, err = Load()
	assert.ErrorContains(t, err, "BITEBAY_FIREBASE_PROJECT_ID")

	t.Setenv("BITEBAY_AUTH_PROVIDER", "saml")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown auth provider")
}

func TestLoadSettingsWithoutServerConfig(t *testing.T) {
	t.Setenv("BITEBAY_JWT_SECRET", "")
	t.Setenv("BITEBAY_RECENT_ORDERS", "3")
	t.Setenv("BITEBAY_LIST_POLL", "45s")

	s := LoadSettings()
	assert.Equal(t, 3, s.RecentOrdersLimit)
	assert.Equal(t, 45*time.Second, s.ListPollInterval)
}
