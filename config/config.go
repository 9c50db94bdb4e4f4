package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string         `mapstructure:"port"`
	LogMode        string         `mapstructure:"log_mode"`
	UploadDir      string         `mapstructure:"upload_dir"`
	MaxUploadBytes int64          `mapstructure:"max_upload_bytes"`
	AllowedOrigins []string       `mapstructure:"allowed_origins"`
	Auth           AuthConfig     `mapstructure:"auth"`
	Database       DatabaseConfig `mapstructure:"database"`
	BlobStore      BlobConfig     `mapstructure:"blob_store"`
	Cache          CacheConfig    `mapstructure:"cache"`
	AI             AIConfig       `mapstructure:"ai"`
	Tracing        TracingConfig  `mapstructure:"tracing"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	TrustUserHeader bool          `mapstructure:"trust_user_header"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, postgres or mongo.
	Driver        string `mapstructure:"driver"`
	DSN           string `mapstructure:"dsn"`
	MongoURI      string `mapstructure:"MONGODB_URI"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type BlobConfig struct {
	// Driver is one of local, s3 or gcs.
	Driver string    `mapstructure:"driver"`
	S3     S3Config  `mapstructure:"s3"`
	GCS    GCSConfig `mapstructure:"gcs"`
}

type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	BaseEndpoint string `mapstructure:"base_endpoint"`
	AccessKey    string `mapstructure:"S3_ACCESS_KEY"`
	SecretKey    string `mapstructure:"S3_SECRET_KEY"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type AIConfig struct {
	// Provider is openai or gemini.
	Provider     string        `mapstructure:"provider"`
	Endpoint     string        `mapstructure:"endpoint"`
	Model        string        `mapstructure:"model"`
	OpenAIAPIKey string        `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKey string        `mapstructure:"GEMINI_API_KEY"`
	Temperature  float32       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// TracingConfig controls OpenTelemetry export. An empty Endpoint prints spans
// to stdout.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_mode", "development")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("auth.trust_user_header", true)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "studytool.db")
	v.SetDefault("database.mongo_database", "studytool")
	v.SetDefault("blob_store.driver", "local")
	v.SetDefault("blob_store.s3.region", "us-east-1")
	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("blob_store.s3.bucket", "")
	v.SetDefault("blob_store.s3.base_endpoint", "")
	v.SetDefault("blob_store.gcs.bucket", "")
	v.SetDefault("blob_store.gcs.credentials_file", "")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.endpoint", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.retry_backoff", 2*time.Second)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sample_ratio", 0.1)
}

// LoadConfig reads configPath (YAML) when it is not empty, then overlays
// environment variables. Nested keys map to env names with dots replaced by
// underscores, e.g. AI_MODEL.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets are read from the environment under their plain names.
	v.BindEnv("ai.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("ai.GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("auth.JWT_SECRET", "JWT_SECRET")
	v.BindEnv("database.MONGODB_URI", "MONGODB_URI")
	v.BindEnv("blob_store.s3.S3_ACCESS_KEY", "S3_ACCESS_KEY")
	v.BindEnv("blob_store.s3.S3_SECRET_KEY", "S3_SECRET_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mongo":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.BlobStore.Driver {
	case "local", "s3", "gcs":
	default:
		return fmt.Errorf("unsupported blob store driver %q", c.BlobStore.Driver)
	}
	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AI.Provider)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive")
	}
	if !c.Auth.TrustUserHeader && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when the user header is not trusted")
	}
	return nil
}
