package config

import (
	"time"

	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/database"
	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/rabbitmq"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName  string
	Port     string
	LogLevel string
	SeedData bool

	Database database.Config
	RabbitMQ rabbitmq.Config
}

// PublishesToBroker reports whether a broker URL was configured.
func (c *Config) PublishesToBroker() bool {
	return c.RabbitMQ.URL != ""
}

// Load reads an optional .env file, then the process environment. It reports
// whether the .env file was found; a missing file is not an error.
func Load() (*Config, bool) {
	envLoaded := godotenv.Load() == nil

	v := viper.New()
	v.SetDefault("APP_NAME", "Tuckshop Stock Manager v1.0")
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_DATA", true)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "tuckshop")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DB_LOG_LEVEL", "warn")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "stock_events")
	v.AutomaticEnv()

	return &Config{
		AppName:  v.GetString("APP_NAME"),
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		SeedData: v.GetBool("SEED_DATA"),
		Database: database.Config{
			URL:             v.GetString("DATABASE_URL"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			TimeZone:        v.GetString("DB_TIMEZONE"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			LogLevel:        v.GetString("DB_LOG_LEVEL"),
		},
		RabbitMQ: rabbitmq.Config{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
	}, envLoaded
}
