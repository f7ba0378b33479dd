package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	HTTPPort int
	GRPCPort int
	// RateLimitRPS throttles payment routes per caller. Zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
	Backend        string
	DB             DBConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Telemetry      TelemetryConfig
	Auth           AuthConfig
	TLS            TLSConfig
	Providers      ProvidersConfig
	LogLevel       string
	LogFormat      string
	// DotEnvLoaded reports whether a .env file was found and applied.
	DotEnvLoaded bool
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// RedisConfig configures the partner cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	PartnerTTL time.Duration
}

// KafkaConfig configures the outbox relay. No brokers disables publishing.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	TLS           bool
	RelayInterval time.Duration
	RelayBatch    int
}

type TelemetryConfig struct {
	OTLPEndpoint string
	Insecure     bool
	ServiceName  string
}

// AuthConfig enables JWT authentication when a secret or public key is set.
type AuthConfig struct {
	JWTSecret        string
	JWTPublicKeyFile string
	JWTIssuer        string
}

// Enabled reports whether requests must carry a JWT.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.JWTPublicKeyFile != ""
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Enabled reports whether both certificate and key are configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// ProvidersConfig configures the outbound provider adapters and partner routing.
type ProvidersConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// Partners are routed by partnerID % RoutingDivisor.
	RoutingDivisor  int64
	MockRemainder   int64
	TestPGRemainder int64
	TossRemainder   int64
	TestPG          TestPGConfig
	Toss            TossConfig
}

type TestPGConfig struct {
	BaseURL string
	APIKey  string
	// IV is the base64url encoded 12 byte GCM nonce issued by the provider.
	IV string
}

type TossConfig struct {
	BaseURL   string
	SecretKey string
}

// Validate checks required configuration values.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendPostgres:
		if c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("REPOSITORY_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.Backend))
	}
	if c.Providers.TestPG.APIKey == "" {
		errs = append(errs, errors.New("TESTPG_API_KEY environment variable is required"))
	}
	if c.Providers.TestPG.IV == "" {
		errs = append(errs, errors.New("TESTPG_IV environment variable is required"))
	}
	if c.Providers.Toss.SecretKey == "" {
		errs = append(errs, errors.New("TOSS_SECRET_KEY environment variable is required"))
	}
	if c.Providers.RoutingDivisor <= 0 {
		errs = append(errs, errors.New("PROVIDER_ROUTING_DIVISOR must be positive"))
	} else {
		errs = append(errs, c.Providers.validateRemainders()...)
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, errors.New("HTTP_RATE_LIMIT_RPS must not be negative"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// validateRemainders requires each provider to own a distinct residue class so
// every provider is reachable and no partner matches two providers.
func (p ProvidersConfig) validateRemainders() []error {
	var errs []error
	owners := map[int64]string{}
	for _, r := range []struct {
		env   string
		value int64
	}{
		{"PROVIDER_MOCK_REMAINDER", p.MockRemainder},
		{"PROVIDER_TESTPG_REMAINDER", p.TestPGRemainder},
		{"PROVIDER_TOSS_REMAINDER", p.TossRemainder},
	} {
		if r.value < 0 || r.value >= p.RoutingDivisor {
			errs = append(errs, fmt.Errorf("%s must be in [0, %d), got %d", r.env, p.RoutingDivisor, r.value))
			continue
		}
		if other, dup := owners[r.value]; dup {
			errs = append(errs, fmt.Errorf("%s and %s share remainder %d", other, r.env, r.value))
			continue
		}
		owners[r.value] = r.env
	}
	return errs
}

// Load reads configuration from a .env file, if present, and the environment.
// Variables already set in the environment take precedence over .env values.
func Load() Config {
	dotEnvLoaded := godotenv.Load() == nil

	return Config{
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		GRPCPort:       getEnvInt("GRPC_PORT", 9090),
		RateLimitRPS:   getEnvFloat("HTTP_RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvInt("HTTP_RATE_LIMIT_BURST", 20),
		Backend:        getEnv("REPOSITORY_BACKEND", BackendPostgres),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "pggateway"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "pggateway"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			PartnerTTL: getEnvDuration("REDIS_PARTNER_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS"),
			Topic:         getEnv("KAFKA_PAYMENTS_TOPIC", "pg.payments"),
			SASLEnabled:   getEnvBool("KAFKA_SASL_ENABLED", false),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", "PLAIN"),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			TLS:           getEnvBool("KAFKA_TLS", false),
			RelayInterval: getEnvDuration("OUTBOX_RELAY_INTERVAL", 2*time.Second),
			RelayBatch:    getEnvInt("OUTBOX_RELAY_BATCH", 100),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName:  "pggateway",
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			JWTIssuer:        getEnv("JWT_ISSUER", ""),
		},
		TLS: TLSConfig{
			CertFile: getEnv("TLS_CERT_FILE", ""),
			KeyFile:  getEnv("TLS_KEY_FILE", ""),
		},
		Providers: ProvidersConfig{
			ConnectTimeout:  getEnvDuration("PROVIDER_CONNECT_TIMEOUT", 5*time.Second),
			ReadTimeout:     getEnvDuration("PROVIDER_READ_TIMEOUT", 10*time.Second),
			RoutingDivisor:  int64(getEnvInt("PROVIDER_ROUTING_DIVISOR", 3)),
			MockRemainder:   int64(getEnvInt("PROVIDER_MOCK_REMAINDER", 1)),
			TestPGRemainder: int64(getEnvInt("PROVIDER_TESTPG_REMAINDER", 2)),
			TossRemainder:   int64(getEnvInt("PROVIDER_TOSS_REMAINDER", 0)),
			TestPG: TestPGConfig{
				BaseURL: getEnv("TESTPG_BASE_URL", "https://api-test-pg.bigs.im"),
				APIKey:  getEnv("TESTPG_API_KEY", ""),
				IV:      getEnv("TESTPG_IV", ""),
			},
			Toss: TossConfig{
				BaseURL:   getEnv("TOSS_BASE_URL", "https://api.tosspayments.com"),
				SecretKey: getEnv("TOSS_SECRET_KEY", ""),
			},
		},
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		DotEnvLoaded: dotEnvLoaded,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
