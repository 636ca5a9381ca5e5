package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Queue     QueueConfig     `mapstructure:"queue"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	Push      PushConfig      `mapstructure:"push"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// RedisConfig holds Redis connection settings (change feed, queue, key store).
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SupabaseConfig holds the order document store settings.
type SupabaseConfig struct {
	URL         string `mapstructure:"url"`
	ServiceKey  string `mapstructure:"service_key"`
	OrdersTable string `mapstructure:"orders_table"`
}

// FeedConfig holds change feed settings.
type FeedConfig struct {
	Channel string `mapstructure:"channel"`
}

// QueueConfig holds async queue settings. MaxRetry stays 0: an order
// notification gets exactly one attempt (plus the in-band text fallback).
type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxRetry    int `mapstructure:"max_retry"`
}

// WhatsAppConfig holds WhatsApp Cloud API settings.
type WhatsAppConfig struct {
	AccessToken      string   `mapstructure:"access_token"`
	PhoneNumberID    string   `mapstructure:"phone_number_id"`
	AdminNumbers     []string `mapstructure:"admin_numbers"`
	TemplateName     string   `mapstructure:"template_name"`
	TemplateLanguage string   `mapstructure:"template_language"`
}

// PushConfig holds FCM push settings.
type PushConfig struct {
	ServerKey string `mapstructure:"server_key"`
}

// WeatherConfig holds weather notification settings.
type WeatherConfig struct {
	City     string `mapstructure:"city"`
	Provider string `mapstructure:"provider"`
}

// SchedulerConfig holds the weather scheduler daily window.
// Hours are local to Timezone, inclusive start, exclusive end.
type SchedulerConfig struct {
	WindowStartHour int    `mapstructure:"window_start_hour"`
	WindowEndHour   int    `mapstructure:"window_end_hour"`
	Timezone        string `mapstructure:"timezone"`
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the ORDERPULSE_ prefix and underscore separators.
// Example: ORDERPULSE_SERVER_PORT overrides server.port in config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Load .env file if it exists
	_ = godotenv.Load()

	// Environment variable settings
	v.SetEnvPrefix("ORDERPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-API-Key", "X-Request-ID"})
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("supabase.orders_table", "orders")
	v.SetDefault("feed.channel", "orderpulse:orders:added")
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.max_retry", 0)
	v.SetDefault("whatsapp.template_name", "order")
	v.SetDefault("whatsapp.template_language", "en")
	v.SetDefault("weather.city", "Tanakpur")
	v.SetDefault("weather.provider", "gemini")
	v.SetDefault("scheduler.window_start_hour", 9)
	v.SetDefault("scheduler.window_end_hour", 21)
	v.SetDefault("scheduler.timezone", "Asia/Kolkata")

	// Read config file (optional, env vars can provide everything)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Handle comma-separated lists from env vars
	if cfg.Auth.APIKeys == nil {
		cfg.Auth.APIKeys = splitList(v.GetString("auth.api_keys"))
	}
	if cfg.WhatsApp.AdminNumbers == nil {
		cfg.WhatsApp.AdminNumbers = splitList(v.GetString("whatsapp.admin_numbers"))
	}

	return &cfg, nil
}

// splitList splits a comma-separated env value into trimmed entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
