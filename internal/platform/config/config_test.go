package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.TrustProxy)
	assert.Equal(t, devSigningKey, cfg.Auth.JWTSigningKey)
	assert.Equal(t, 15*24*time.Hour, cfg.Auth.UserTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.BusinessTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 10*time.Minute, cfg.Auth.ResetOTPTTL)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.Equal(t, "https://refeera.vercel.app/form", cfg.Links.ReferralBase)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SIGNING_KEY", "s3cret")
	t.Setenv("USER_TOKEN_TTL", "2d")
	t.Setenv("OTP_RESET_TTL", "90s")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/refeera")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SMTP_USER", "noreply@example.com")
	t.Setenv("MAIL_FROM", "")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Server.TrustProxy)

	assert.Equal(t, 48*time.Hour, cfg.Auth.UserTokenTTL)
	assert.Equal(t, 90*time.Second, cfg.Auth.ResetOTPTTL)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "noreply@example.com", cfg.Mail.From)
	assert.False(t, cfg.IsDev())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"missing signing key in production", map[string]string{"ENV": "production", "JWT_SIGNING_KEY": ""}, "JWT_SIGNING_KEY"},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""}, "DATABASE_URL"},
		{"mongo without uri", map[string]string{"STORE_BACKEND": "mongo", "MONGO_URI": ""}, "MONGO_URI"},
		{"unknown backend", map[string]string{"STORE_BACKEND": "sqlite"}, "STORE_BACKEND"},
		{"malformed duration", map[string]string{"USER_TOKEN_TTL": "soon"}, "USER_TOKEN_TTL"},
		{"malformed int", map[string]string{"BCRYPT_COST": "ten"}, "BCRYPT_COST"},
		{"malformed bool", map[string]string{"TRUST_PROXY": "sometimes"}, "TRUST_PROXY"},
		{"bcrypt cost out of range", map[string]string{"BCRYPT_COST": "40"}, "BCRYPT_COST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", "dev")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
