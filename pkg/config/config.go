package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Service    ServiceConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	GCP        GCPConfig
	GCS        GCSConfig
	Media      MediaConfig
	PubSub     PubSubConfig
	Outbox       OutboxConfig
	Reconciler   ReconcilerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ROOMSCOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"ROOMSCOUT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ROOMSCOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROOMSCOUT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ROOMSCOUT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ROOMSCOUT_DB_DSN"`
	Driver string `envconfig:"ROOMSCOUT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ROOMSCOUT_DB_HOST"`
	LegacyPort     int    `envconfig:"ROOMSCOUT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ROOMSCOUT_DB_USER"`
	LegacyPassword string `envconfig:"ROOMSCOUT_DB_PASSWORD"`
	LegacyName     string `envconfig:"ROOMSCOUT_DB_NAME"`
	LegacySSLMode  string `envconfig:"ROOMSCOUT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROOMSCOUT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROOMSCOUT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROOMSCOUT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROOMSCOUT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ROOMSCOUT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ROOMSCOUT_REDIS_ADDR"`
	Password     string        `envconfig:"ROOMSCOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROOMSCOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROOMSCOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROOMSCOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROOMSCOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROOMSCOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROOMSCOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ROOMSCOUT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ROOMSCOUT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ROOMSCOUT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ROOMSCOUT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ROOMSCOUT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ROOMSCOUT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"ROOMSCOUT_GCS_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"ROOMSCOUT_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type MediaConfig struct {
	MaxUploadMB        int           `envconfig:"ROOMSCOUT_MEDIA_MAX_UPLOAD_MB" default:"10"`
	MaxFilesPerListing int           `envconfig:"ROOMSCOUT_MEDIA_MAX_FILES_PER_LISTING" default:"6"`
	BatchUploadTimeout time.Duration `envconfig:"ROOMSCOUT_MEDIA_BATCH_UPLOAD_TIMEOUT" default:"120s"`
}

// MaxUploadBytes converts the configured megabyte cap to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) * 1024 * 1024
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"ROOMSCOUT_PUBSUB_DOMAIN_TOPIC" default:"rs-domain-events"`
	DomainSubscription string `envconfig:"ROOMSCOUT_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ROOMSCOUT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ROOMSCOUT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ROOMSCOUT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type ReconcilerConfig struct {
	GracePeriod time.Duration `envconfig:"ROOMSCOUT_RECONCILER_GRACE_PERIOD" default:"1h"`
	Interval    time.Duration `envconfig:"ROOMSCOUT_RECONCILER_INTERVAL" default:"15m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ROOMSCOUT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
