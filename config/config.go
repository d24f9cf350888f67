package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	OAuth     OAuthConfig
	Media     MediaConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	TimeZone     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether the server runs with production settings.
func (s ServerConfig) IsProduction() bool { return s.Env == "production" }

// Location returns the configured time zone, falling back to UTC.
func (s ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type DatabaseConfig struct {
	Driver          string // sqlite | mysql | postgres
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	SessionSecret string
	SessionExpiry time.Duration
	Issuer        string
	CookieName    string
	SecureCookie  bool
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type MediaConfig struct {
	Backend string // local | cloudinary | s3 | gcs
	Root    string
	URL     string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3Prefix        string
	S3PublicBaseURL string

	GCSBucket        string
	GCSPrefix        string
	GCSPublicBaseURL string
}

type RateLimitConfig struct {
	Backend       string // memory | redis
	RPS           float64
	Burst         int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type TelemetryConfig struct {
	ServiceName   string
	TraceExporter string // none | otlp
	OTLPEndpoint  string
	OTLPInsecure  bool
}

// AdminConfig seeds the first superuser (see cmd/create-admin).
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("server.readtimeout", 15*time.Second)
	v.SetDefault("server.writetimeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "saferoute.db")
	v.SetDefault("database.maxidleconns", 10)
	v.SetDefault("database.maxopenconns", 50)
	v.SetDefault("database.connmaxlifetime", 10*time.Minute)

	v.SetDefault("jwt.sessionsecret", "change-me-in-production")
	v.SetDefault("jwt.sessionexpiry", 14*24*time.Hour)
	v.SetDefault("jwt.issuer", "saferoute")
	v.SetDefault("jwt.cookiename", "saferoute_session")
	v.SetDefault("jwt.securecookie", false)

	v.SetDefault("oauth.googleredirecturl", "http://localhost:8000/accounts/google/callback/")

	v.SetDefault("media.backend", "local")
	v.SetDefault("media.root", "media")
	v.SetDefault("media.url", "/media/")
	v.SetDefault("media.cloudinaryfolder", "SafeRoute")
	v.SetDefault("media.s3region", "us-east-1")

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 60)
	v.SetDefault("ratelimit.redisaddr", "localhost:6379")

	v.SetDefault("telemetry.servicename", "saferoute")
	v.SetDefault("telemetry.traceexporter", "none")
	v.SetDefault("telemetry.otlpendpoint", "localhost:4317")
	v.SetDefault("telemetry.otlpinsecure", true)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "admin@saferoute.com")
}

// Load reads configuration from an optional config.yaml (working directory or
// SAFEROUTE_CONFIG) and SAFEROUTE_* environment variables,
// e.g. SAFEROUTE_DATABASE_DRIVER=mysql.
func Load() *Config {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("saferoute")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("SAFEROUTE_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	// A missing config file is fine; everything has a default.
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Env:          v.GetString("server.env"),
			TimeZone:     v.GetString("server.timezone"),
			ReadTimeout:  v.GetDuration("server.readtimeout"),
			WriteTimeout: v.GetDuration("server.writetimeout"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.maxidleconns"),
			MaxOpenConns:    v.GetInt("database.maxopenconns"),
			ConnMaxLifetime: v.GetDuration("database.connmaxlifetime"),
		},
		JWT: JWTConfig{
			SessionSecret: v.GetString("jwt.sessionsecret"),
			SessionExpiry: v.GetDuration("jwt.sessionexpiry"),
			Issuer:        v.GetString("jwt.issuer"),
			CookieName:    v.GetString("jwt.cookiename"),
			SecureCookie:  v.GetBool("jwt.securecookie"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     v.GetString("oauth.googleclientid"),
			GoogleClientSecret: v.GetString("oauth.googleclientsecret"),
			GoogleRedirectURL:  v.GetString("oauth.googleredirecturl"),
		},
		Media: MediaConfig{
			Backend:             v.GetString("media.backend"),
			Root:                v.GetString("media.root"),
			URL:                 v.GetString("media.url"),
			CloudinaryCloudName: v.GetString("media.cloudinarycloudname"),
			CloudinaryAPIKey:    v.GetString("media.cloudinaryapikey"),
			CloudinaryAPISecret: v.GetString("media.cloudinaryapisecret"),
			CloudinaryFolder:    v.GetString("media.cloudinaryfolder"),
			S3Bucket:            v.GetString("media.s3bucket"),
			S3Region:            v.GetString("media.s3region"),
			S3Endpoint:          v.GetString("media.s3endpoint"),
			S3Prefix:            v.GetString("media.s3prefix"),
			S3PublicBaseURL:     v.GetString("media.s3publicbaseurl"),
			GCSBucket:           v.GetString("media.gcsbucket"),
			GCSPrefix:           v.GetString("media.gcsprefix"),
			GCSPublicBaseURL:    v.GetString("media.gcspublicbaseurl"),
		},
		RateLimit: RateLimitConfig{
			Backend:       v.GetString("ratelimit.backend"),
			RPS:           v.GetFloat64("ratelimit.rps"),
			Burst:         v.GetInt("ratelimit.burst"),
			RedisAddr:     v.GetString("ratelimit.redisaddr"),
			RedisPassword: v.GetString("ratelimit.redispassword"),
			RedisDB:       v.GetInt("ratelimit.redisdb"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:   v.GetString("telemetry.servicename"),
			TraceExporter: v.GetString("telemetry.traceexporter"),
			OTLPEndpoint:  v.GetString("telemetry.otlpendpoint"),
			OTLPInsecure:  v.GetBool("telemetry.otlpinsecure"),
		},
		Admin: func() AdminConfig {
			a := AdminConfig{
				Username: v.GetString("admin.username"),
				Email:    v.GetString("admin.email"),
				Password: v.GetString("admin.password"),
			}
			// Deploy scripts export these without the prefix.
			if s := os.Getenv("ADMIN_USERNAME"); s != "" {
				a.Username = s
			}
			if s := os.Getenv("ADMIN_EMAIL"); s != "" {
				a.Email = s
			}
			if s := os.Getenv("ADMIN_PASSWORD"); s != "" {
				a.Password = s
			}
			return a
		}(),
	}

	// Hosted Postgres hands out a single URL.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.DSN = url
	}
	return cfg
}
