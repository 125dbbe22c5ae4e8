package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// MaxUploadBytes bounds a whole multipart request.
	MaxUploadBytes int64
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	// PublicBaseURL overrides the endpoint when building media URLs.
	PublicBaseURL string
	// DownloadLinkTTL is the lifetime of presigned download links. Zero
	// hands out the public media URL with the disposition appended, which
	// only S3 gateways that honour it on unsigned reads will respect.
	DownloadLinkTTL time.Duration
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
}

type AdminConfig struct {
	Email string
	// PasswordHash is an argon2id hash as produced by security.HashPassword.
	PasswordHash string
}

type CacheConfig struct {
	Enabled bool
	ListTTL time.Duration
}

type WorkerConfig struct {
	Stream       string
	Group        string
	Consumer     string
	BlockTimeout time.Duration
	ClaimIdle    time.Duration
}

type JobsConfig struct {
	ReconcileSchedule string
}

type AppConfig struct {
	Environment      string
	LogLevel         string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Admin            AdminConfig
	Cache            CacheConfig
	Worker           WorkerConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("WALLHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Environment, validation.Required),
		validation.Field(&c.Postgres),
		validation.Field(&c.Security),
		validation.Field(&c.Storage),
		validation.Field(&c.Worker),
	)
}

func (c PostgresConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DSN, validation.Required),
	)
}

func (c SecurityConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.JWTAccessSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.JWTAccessTTL, validation.Required),
	)
}

func (c StorageConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.Bucket, validation.Required),
		validation.Field(&c.DownloadLinkTTL, validation.Min(time.Duration(0)), validation.Max(7*24*time.Hour)),
	)
}

func (c WorkerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Stream, validation.Required),
		validation.Field(&c.Group, validation.Required),
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("loglevel", "info")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.maxuploadbytes", 64<<20)

	// bound so AutomaticEnv can override it
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucket", "wallhub-media")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicbaseurl", "")
	v.SetDefault("storage.downloadlinkttl", "15m")

	v.SetDefault("security.jwtaccesssecret", "")
	v.SetDefault("security.jwtaccessttl", "24h")

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.passwordhash", "")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.listttl", "30s")

	v.SetDefault("worker.stream", "wallhub:tasks")
	v.SetDefault("worker.group", "wallhub-workers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.blocktimeout", "5s")
	v.SetDefault("worker.claimidle", "1m")

	v.SetDefault("jobs.reconcileschedule", "@every 1h")

	v.SetDefault("allowcorsorigins", []string{"*"})
}
