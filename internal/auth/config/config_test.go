package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "a-test-secret-that-is-long-enough")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "plant-shop-auth", cfg.JWTIssuer)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, "plantshop_token", cfg.CookieName)
	assert.Equal(t, "Lax", cfg.CookieSameSite)
	assert.False(t, cfg.Google.Enabled())
	assert.Equal(t, "http://localhost:5000/auth/federated/google/callback", cfg.CallbackURL("google"))
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_Google(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "shh")
	t.Setenv("FEDERATED_CALLBACK_BASE_URL", "https://shop.example.com/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Google.Enabled())
	assert.Equal(t, "https://shop.example.com/auth/federated/google/callback", cfg.CallbackURL("google"))
}

func TestValidate_SameSite(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "strict", want: "Strict"},
		{in: "NONE", want: "None"},
		{in: "", want: "Lax"},
		{in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := &Config{JWTSecretKey: "s", CookieSameSite: tt.in}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.CookieSameSite)
		})
	}
}
