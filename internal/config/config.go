package config

import (
	"net/http"
	"time"
)

type DBConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port           string
	Handler        http.Handler
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// OnShutdown runs when Shutdown starts, before idle connections are awaited.
	OnShutdown func()
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AppConfig holds the yaml-driven knobs shared by the services.
type AppConfig struct {
	CDNOrigin    string
	FeedMaxLimit int
	CacheTTL     time.Duration
	TokenTTL     time.Duration
	AccessSecret []byte
}
