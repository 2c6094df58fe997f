package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	DataDir        string        `mapstructure:"DATA_DIR"`
	DBUrl          string        `mapstructure:"DB_URL"`
	RedisUrl       string        `mapstructure:"REDIS_URL"`
	LogFile        string        `mapstructure:"LOG_FILE"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	MaxUploadBytes int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	Pass2Workers   int           `mapstructure:"PASS2_WORKERS"`
	Cities         string        `mapstructure:"CITIES"`
}

// CityNames returns the configured city list, or every built-in schema
func (c Config) CityNames() []string {
	if strings.TrimSpace(c.Cities) == "" {
		return DefaultCityNames()
	}
	var names []string
	for _, name := range strings.Split(c.Cities, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func LoadConfig() (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Set default values
	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("DB_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("LOG_FILE", "censuspop.log")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_UPLOAD_BYTES", 16<<20)
	viper.SetDefault("CACHE_TTL", DefaultCacheTTL)
	viper.SetDefault("PASS2_WORKERS", 0)
	viper.SetDefault("CITIES", "")

	// Load environment file
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(".") // Look in the project root directory

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	err = viper.Unmarshal(&c)
	return
}
