package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Mail     MailConfig     `mapstructure:"mail"`
	Booking  BookingConfig  `mapstructure:"booking"`
	OTP      OTPConfig      `mapstructure:"otp"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Address       string `mapstructure:"address"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// S3Config points at the image bucket. PublicBaseURL is the prefix used to
// build the public URL stored on records; when empty the endpoint/bucket
// path-style URL is used.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`
}

// Enabled reports whether enough of the bucket config is present for uploads.
func (c S3Config) Enabled() bool {
	return c.BucketName != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// MailConfig configures the transactional mail provider. ContactInbox
// receives contact form submissions.
type MailConfig struct {
	APIKey       string `mapstructure:"api_key"`
	From         string `mapstructure:"from"`
	ContactInbox string `mapstructure:"contact_inbox"`
}

func (c MailConfig) Enabled() bool {
	return c.APIKey != "" && c.From != ""
}

type BookingConfig struct {
	HoldTTL time.Duration `mapstructure:"hold_ttl"`
}

type OTPConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// AdminConfig seeds the first admin account on startup.
type AdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in path is loaded first so local development does not need
// exported variables.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load(strings.TrimSuffix(path, "/") + "/.env")

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Handling ---
	// server.address -> SERVER_ADDRESS, booking.hold_ttl -> BOOKING_HOLD_TTL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	// AutomaticEnv only resolves keys viper already knows about, so every
	// key we want from the environment needs a default or a bind.
	for _, key := range envOnlyKeys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}

var envOnlyKeys = []string{
	"jwt.secret",
	"s3.endpoint", "s3.region", "s3.access_key_id", "s3.secret_access_key", "s3.bucket_name", "s3.public_base_url",
	"nats.url",
	"mail.api_key", "mail.from", "mail.contact_inbox",
	"admin.name", "admin.email", "admin.password",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origin", "http://localhost:5173")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "gym_app")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.max_upload_bytes", 5<<20)
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("booking.hold_ttl", "5m")
	v.SetDefault("otp.ttl", "10m")
	v.SetDefault("otp.max_attempts", 5)
	v.SetDefault("admin.name", "Administrator")
}
