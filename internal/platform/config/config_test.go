package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwreset/internal/password"
	dErrors "pwreset/pkg/domain-errors"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, password.DefaultConfig(), cfg.Policy)
	assert.True(t, cfg.UsesDevTokenKey())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Audit.KafkaBrokers)
	assert.Equal(t, "pwreset.audit", cfg.Audit.Topic)
	assert.Equal(t, RateLimitConfig{Reset: 10, Evaluate: 300, Admin: 60, Window: time.Minute}, cfg.RateLimit)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{
		"PWRESET_ADDR":              ":9090",
		"PWRESET_TOKEN_KEY":         "k",
		"PWRESET_MIN_LENGTH":        "10",
		"PWRESET_MAX_LENGTH":        "64",
		"PWRESET_REQUIRED_CRITERIA": "3",
		"PWRESET_REQUIRE_LENGTH":    "true",
		"PWRESET_BCRYPT_COST":       "4",
		"PWRESET_TOKEN_TTL":         "5m",
		"PWRESET_DATABASE_URL":      "postgres://pw@db/pwreset",
		"PWRESET_REDIS_URL":         "redis://cache:6379/0",
		"PWRESET_KAFKA_BROKERS":     " kafka-1:9092, ,kafka-2:9092 ",
		"PWRESET_AUDIT_TOPIC":       "audit",
		"PWRESET_RATE_LIMIT_RESET":  "3",
		"PWRESET_RATE_LIMIT_WINDOW": "30s",
		"PWRESET_TRUSTED_PROXIES":   "10.0.0.0/8, 192.0.2.10",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.False(t, cfg.UsesDevTokenKey())
	assert.Equal(t, password.Config{MinLength: 10, MaxLength: 64, RequiredCriteria: 3, RequireLength: true}, cfg.Policy)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "postgres://pw@db/pwreset", cfg.DatabaseURL)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Audit.KafkaBrokers)
	assert.Equal(t, "audit", cfg.Audit.Topic)
	assert.Equal(t, 3, cfg.RateLimit.Reset)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.TrustedProxies.Contains("10.1.2.3"))
	assert.True(t, cfg.TrustedProxies.Contains("192.0.2.10"))
	assert.False(t, cfg.TrustedProxies.Contains("192.0.2.11"))
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{"unparseable integer", map[string]string{"PWRESET_MIN_LENGTH": "eight"}, "PWRESET_MIN_LENGTH"},
		{"unparseable bool", map[string]string{"PWRESET_REQUIRE_LENGTH": "maybe"}, "PWRESET_REQUIRE_LENGTH"},
		{"unparseable duration", map[string]string{"PWRESET_TOKEN_TTL": "soon"}, "PWRESET_TOKEN_TTL"},
		{"bcrypt cost out of range", map[string]string{"PWRESET_BCRYPT_COST": "40"}, "PWRESET_BCRYPT_COST"},
		{"negative audit buffer", map[string]string{"PWRESET_AUDIT_BUFFER": "-1"}, "PWRESET_AUDIT_BUFFER"},
		{"malformed trusted proxy", map[string]string{"PWRESET_TRUSTED_PROXIES": "10.0.0.0/40"}, "PWRESET_TRUSTED_PROXIES"},
		{"inverted length bounds", map[string]string{"PWRESET_MIN_LENGTH": "40"}, "password policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromLookup(lookupFrom(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("policy errors keep their code", func(t *testing.T) {
		_, err := fromLookup(lookupFrom(map[string]string{"PWRESET_REQUIRED_CRITERIA": "9"}))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfig))
	})
}
