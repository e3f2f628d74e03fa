package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pwreset/internal/password"
	"pwreset/pkg/platform/middleware/metadata"
)

// devTokenKey signs reset tokens when PWRESET_TOKEN_KEY is unset. It must be
// overridden outside development.
const devTokenKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	TokenKey        string
	TokenIssuer     string
	TokenAudience   string
	TokenTTL        time.Duration
	AdminToken      string
	TrustedProxies  metadata.TrustedProxies
	BcryptCost      int
	ShutdownTimeout time.Duration
	Policy          password.Config
	DatabaseURL     string
	Redis           RedisConfig
	Audit           AuditConfig
	RateLimit       RateLimitConfig
}

// RateLimitConfig sets per client IP budgets. Buckets live in Redis when it is
// configured.
type RateLimitConfig struct {
	Disabled bool
	Reset    int
	Evaluate int
	Admin    int
	Window   time.Duration
}

// RedisConfig configures the consumed reset token ledger. An empty URL keeps
// the ledger in process memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuditConfig selects the audit sink. With no brokers events stay in memory.
type AuditConfig struct {
	KafkaBrokers  []string
	Topic         string
	BufferSize    int
	ConsumerGroup string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Unset variables take defaults; malformed ones are an error.
func FromEnv() (Server, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Server, error) {
	env := envReader{lookup: lookup}

	cfg := Server{
		Addr:            env.str("PWRESET_ADDR", ":8080"),
		LogLevel:        env.str("PWRESET_LOG_LEVEL", "info"),
		LogFormat:       env.str("PWRESET_LOG_FORMAT", "json"),
		TokenKey:        env.str("PWRESET_TOKEN_KEY", devTokenKey),
		TokenIssuer:     env.str("PWRESET_TOKEN_ISSUER", "pwreset"),
		TokenAudience:   env.str("PWRESET_TOKEN_AUDIENCE", "pwreset"),
		TokenTTL:        env.duration("PWRESET_TOKEN_TTL", 15*time.Minute),
		AdminToken:      env.str("PWRESET_ADMIN_TOKEN", ""),
		BcryptCost:      env.integer("PWRESET_BCRYPT_COST", bcrypt.DefaultCost),
		ShutdownTimeout: env.duration("PWRESET_SHUTDOWN_TIMEOUT", 10*time.Second),
		Policy: password.Config{
			MinLength:        env.integer("PWRESET_MIN_LENGTH", password.DefaultMinLength),
			MaxLength:        env.integer("PWRESET_MAX_LENGTH", password.DefaultMaxLength),
			RequiredCriteria: env.integer("PWRESET_REQUIRED_CRITERIA", password.DefaultRequiredCriteria),
			RequireLength:    env.boolean("PWRESET_REQUIRE_LENGTH", false),
		},
		DatabaseURL: env.str("PWRESET_DATABASE_URL", ""),
		Redis: RedisConfig{
			URL:          env.str("PWRESET_REDIS_URL", ""),
			PoolSize:     env.integer("PWRESET_REDIS_POOL_SIZE", 10),
			MinIdleConns: env.integer("PWRESET_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.duration("PWRESET_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.duration("PWRESET_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.duration("PWRESET_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Audit: AuditConfig{
			KafkaBrokers:  env.list("PWRESET_KAFKA_BROKERS"),
			Topic:         env.str("PWRESET_AUDIT_TOPIC", "pwreset.audit"),
			BufferSize:    env.integer("PWRESET_AUDIT_BUFFER", 256),
			ConsumerGroup: env.str("PWRESET_AUDIT_GROUP", "pwreset-audit-sink"),
		},
		RateLimit: RateLimitConfig{
			Disabled: env.boolean("PWRESET_RATE_LIMIT_DISABLED", false),
			Reset:    env.integer("PWRESET_RATE_LIMIT_RESET", 10),
			Evaluate: env.integer("PWRESET_RATE_LIMIT_EVALUATE", 300),
			Admin:    env.integer("PWRESET_RATE_LIMIT_ADMIN", 60),
			Window:   env.duration("PWRESET_RATE_LIMIT_WINDOW", time.Minute),
		},
	}
	if env.err != nil {
		return Server{}, env.err
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Server{}, fmt.Errorf("PWRESET_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	proxies, err := metadata.ParseTrustedProxies(env.list("PWRESET_TRUSTED_PROXIES"))
	if err != nil {
		return Server{}, fmt.Errorf("PWRESET_TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	if cfg.Audit.BufferSize < 0 {
		return Server{}, fmt.Errorf("PWRESET_AUDIT_BUFFER must not be negative")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return Server{}, fmt.Errorf("password policy: %w", err)
	}
	return cfg, nil
}

// UsesDevTokenKey reports whether reset tokens are signed with the built-in
// development key.
func (s Server) UsesDevTokenKey() bool {
	return s.TokenKey == devTokenKey
}

// envReader keeps the first parse error so FromEnv can report it once.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) raw(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.raw(key); ok {
		return v
	}
	return def
}

// list splits a comma separated value, dropping empty entries.
func (e *envReader) list(key string) []string {
	v, ok := e.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *envReader) integer(key string, def int) int {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
