package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

type Config struct {
	Port          string
	Mode          string
	CallbackPath  string
	ProxyPrefix   string
	ProxyTarget   string
	MaxBodyBytes  int64
	DefaultStatus string
	WSWaitTimeout time.Duration
	OpenBrowser   bool
	LogLevel      string
	LogJSON       bool
}

func Load() *Config {
	// Загрузка .env файла
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Mode:          getEnv("APP_ENV", ModeProduction),
		CallbackPath:  getEnv("CALLBACK_PATH", "/callback"),
		ProxyPrefix:   getEnv("PROXY_PREFIX", "/api/zap/"),
		ProxyTarget:   getEnv("PROXY_TARGET", "https://healapi.vercel.app"),
		MaxBodyBytes:  int64(getEnvAsInt("MAX_BODY_BYTES", 1<<20)),
		DefaultStatus: getEnv("DEFAULT_STATUS", "received"),
		WSWaitTimeout: getEnvAsDuration("WS_WAIT_TIMEOUT", 5*time.Minute),
		OpenBrowser:   getEnvAsBool("OPEN_BROWSER", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogJSON:       getEnvAsBool("LOG_JSON", false),
	}
}

// IsDevelopment - включен ли режим разработки (dev proxy, открытие браузера)
func (c *Config) IsDevelopment() bool {
	return c.Mode == ModeDevelopment
}

// Addr - адрес для http.ListenAndServe
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil || intValue <= 0 {
		return defaultValue
	}

	return intValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}

	return d
}
