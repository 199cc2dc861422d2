package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Workflow defaults carried over from the editorial policy: three completed
// reviews push a submission into evaluation, and reviewers get two weeks.
const (
	DefaultReviewThreshold = 3
	DefaultReviewDeadline  = 14 * 24 * time.Hour
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	NATSURL              string
	JWTSecret            string
	NotificationChannel  string
	NotificationEmail    string
	SMTPHost             string
	SMTPPort             int
	SMTPUser             string
	SMTPPassword         string
	SMTPFrom             string
	CloudinaryCloudName  string
	CloudinaryAPIKey     string
	CloudinaryAPISecret  string
	CloudinaryFolder     string
	ReviewThreshold      int
	ReviewDeadline       time.Duration
	StatisticsCacheTTL   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CRMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CRMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("notification.channel", "crms")
	v.SetDefault("cloudinary.folder", "crms/manuscripts")
	v.SetDefault("review.threshold", DefaultReviewThreshold)
	v.SetDefault("review.deadline", "336h")
	v.SetDefault("statistics.cache_ttl", "5m")
	v.SetDefault("smtp.port", 587)

	deadline, err := time.ParseDuration(v.GetString("review.deadline"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid review deadline: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString("statistics.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid statistics cache ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		NotificationChannel: v.GetString("notification.channel"),
		NotificationEmail:   v.GetString("notification.email"),
		SMTPHost:            v.GetString("smtp.host"),
		SMTPPort:            v.GetInt("smtp.port"),
		SMTPUser:            v.GetString("smtp.user"),
		SMTPPassword:        v.GetString("smtp.password"),
		SMTPFrom:            v.GetString("smtp.from"),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:    v.GetString("cloudinary.folder"),
		ReviewThreshold:     v.GetInt("review.threshold"),
		ReviewDeadline:      deadline,
		StatisticsCacheTTL:  ttl,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = DefaultReviewThreshold
	}

	if cfg.ReviewDeadline <= 0 {
		cfg.ReviewDeadline = DefaultReviewDeadline
	}

	return cfg, nil
}
