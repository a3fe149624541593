package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Worker WorkerConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
}

// StoreConfig tunes the connection to the remote record store. The store URL
// and service key themselves are not configured here; they come from the
// credential chain (see credentials.go).
type StoreConfig struct {
	CredentialsFile string        `mapstructure:"credentialsFile"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwtSecret"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
	// AdminEmails is a comma-separated allow-list. Empty means any
	// authenticated user is authorized.
	AdminEmails  string `mapstructure:"adminEmails"`
	SeedEmail    string `mapstructure:"seedEmail"`
	SeedPassword string `mapstructure:"seedPassword"`
}

type WorkerConfig struct {
	Concurrency          int           `mapstructure:"concurrency"`
	ExpiryReportSchedule string        `mapstructure:"expiryReportSchedule"`
	SummaryCacheTTL      time.Duration `mapstructure:"summaryCacheTTL"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.readTimeout", 5*time.Second)
	viper.SetDefault("server.writeTimeout", 10*time.Second)
	viper.SetDefault("server.idleTimeout", 120*time.Second)
	viper.SetDefault("server.shutdownPeriod", 15*time.Second)
	viper.SetDefault("server.allowedOrigins", []string{"http://localhost:3000"})

	viper.SetDefault("store.credentialsFile", "./store-credentials.json")
	viper.SetDefault("store.maxOpenConns", 25)
	viper.SetDefault("store.maxIdleConns", 25)
	viper.SetDefault("store.connMaxLifetime", 5*time.Minute)

	viper.SetDefault("redis.db", 0)

	viper.SetDefault("auth.tokenTTL", 12*time.Hour)
	viper.SetDefault("auth.adminEmails", "")
	viper.SetDefault("auth.seedEmail", "admin@localhost")

	viper.SetDefault("worker.concurrency", 10)
	viper.SetDefault("worker.expiryReportSchedule", "@every 15m")
	viper.SetDefault("worker.summaryCacheTTL", 15*time.Minute)

	viper.SetDefault("log.level", "info")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AllowEmptyEnv(true)

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AdminAllowList splits, trims and lowercases the configured allow-list.
func (c *AuthConfig) AdminAllowList() []string {
	if strings.TrimSpace(c.AdminEmails) == "" {
		return nil
	}
	parts := strings.Split(c.AdminEmails, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
