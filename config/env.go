package config

import "github.com/kelseyhightower/envconfig"

// App is the environment-driven configuration of the service.
type App struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// RabbitMQ is optional: without it, notification jobs are dropped.
	RabbitMQURL string `envconfig:"RABBITMQ_URL" default:""`
	NotifyQueue string `envconfig:"NOTIFY_QUEUE" default:"notifications"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	LockTTLSeconds    int `envconfig:"LOCK_TTL_SECONDS" default:"10"`
	CacheTTLSeconds   int `envconfig:"CACHE_TTL_SECONDS" default:"300"`
	EventTTLSeconds   int `envconfig:"EVENT_TTL_SECONDS" default:"60"`
	StreamPollSeconds int `envconfig:"STREAM_POLL_SECONDS" default:"2"`

	CreateRateLimit   int `envconfig:"CREATE_RATE_LIMIT" default:"5"`
	CancelRateLimit   int `envconfig:"CANCEL_RATE_LIMIT" default:"10"`
	RateWindowSeconds int `envconfig:"RATE_WINDOW_SECONDS" default:"60"`

	DayStartHour       int `envconfig:"DAY_START_HOUR" default:"10"`
	DayEndHour         int `envconfig:"DAY_END_HOUR" default:"19"`
	SlotGranularityMin int `envconfig:"SLOT_GRANULARITY_MIN" default:"60"`
}

// Load reads the configuration from the environment.
func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
