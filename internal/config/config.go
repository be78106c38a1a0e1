package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is loaded once at process start from environment variables.
// The service runs in containers, so everything is env-driven; defaults
// match the local docker-compose setup.
type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`

	AWSRegion        string `mapstructure:"AWS_REGION"`
	AWSEndpoint      string `mapstructure:"AWS_ENDPOINT"`
	ReplySQSQueueURL string `mapstructure:"REPLY_SQS_QUEUE_URL"`
	AlertSQSQueueURL string `mapstructure:"ALERT_SQS_QUEUE_URL"`

	WhatsAppVerifyToken string `mapstructure:"WHATSAPP_VERIFY_TOKEN"`
	WhatsAppAccessToken string `mapstructure:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneID     string `mapstructure:"WHATSAPP_PHONE_ID"`
	GraphAPIBaseURL     string `mapstructure:"GRAPH_API_BASE_URL"`

	// GeofenceRadiusMeters is the acceptance radius around a site.
	GeofenceRadiusMeters float64 `mapstructure:"GEOFENCE_RADIUS_METERS"`
	// OrgTimezone decides which calendar date a punch-in lands on.
	OrgTimezone string `mapstructure:"ORG_TIMEZONE"`

	AdminAlertEmail  string `mapstructure:"ADMIN_ALERT_EMAIL"`
	AlertSenderEmail string `mapstructure:"ALERT_SENDER_EMAIL"`
}

// LoadConfig reads configuration from environment variables and
// validates the values the per-event path depends on. Misconfiguration
// fails the process here, at startup, never mid-request.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "hajiri_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("IS_LOCAL_DEV", false)
	viper.SetDefault("AWS_REGION", "ap-south-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("REPLY_SQS_QUEUE_URL", "http://localstack:4566/000000000000/reply-queue")
	viper.SetDefault("ALERT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/alert-queue")
	viper.SetDefault("WHATSAPP_VERIFY_TOKEN", "hajiri_token")
	viper.SetDefault("WHATSAPP_ACCESS_TOKEN", "")
	viper.SetDefault("WHATSAPP_PHONE_ID", "")
	viper.SetDefault("GRAPH_API_BASE_URL", "https://graph.facebook.com/v18.0")
	viper.SetDefault("GEOFENCE_RADIUS_METERS", 50.0)
	viper.SetDefault("ORG_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("ADMIN_ALERT_EMAIL", "ops@hajiri.app")
	viper.SetDefault("ALERT_SENDER_EMAIL", "alerts@hajiri.app")

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	if err = viper.Unmarshal(&config); err != nil {
		return config, err
	}

	return config, config.validate()
}

func (c Config) validate() error {
	if c.GeofenceRadiusMeters <= 0 {
		return fmt.Errorf("GEOFENCE_RADIUS_METERS must be positive, got %v", c.GeofenceRadiusMeters)
	}
	if strings.TrimSpace(c.WhatsAppVerifyToken) == "" {
		return fmt.Errorf("WHATSAPP_VERIFY_TOKEN must not be empty")
	}
	if _, err := time.LoadLocation(c.OrgTimezone); err != nil {
		return fmt.Errorf("invalid ORG_TIMEZONE %q: %w", c.OrgTimezone, err)
	}
	return nil
}

// Location returns the configured org timezone. Validity is checked at
// load time, so this never fails after startup.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.OrgTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseDSN builds the Postgres connection string.
func (c Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
