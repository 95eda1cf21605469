package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Store      Store      `mapstructure:"store"`
	Generation Generation `mapstructure:"generation"`
	Topics     Topics     `mapstructure:"topics"`
	Scheduler  Scheduler  `mapstructure:"scheduler"`
	Server     Server     `mapstructure:"server"`
	PostHog    PostHog    `mapstructure:"posthog"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"config_file"`
}

// Store holds record store configuration
type Store struct {
	Driver  string `mapstructure:"driver"` // sqlite or postgres
	Path    string `mapstructure:"path"`   // sqlite database directory
	DSN     string `mapstructure:"dsn"`    // postgres connection string
	Timeout string `mapstructure:"timeout"`
}

// Generation holds orchestrator configuration
type Generation struct {
	// StrictUniqueness re-validates the mutated draft and refuses to publish
	// when it is still a near-duplicate.
	StrictUniqueness bool   `mapstructure:"strict_uniqueness"`
	Seed             int64  `mapstructure:"seed"` // 0 = time based
	Featured         bool   `mapstructure:"featured"`
	Timeout          string `mapstructure:"timeout"`
}

// Topics holds topic catalog configuration
type Topics struct {
	CatalogFile string `mapstructure:"catalog_file"`
}

// Scheduler holds recurring job configuration
type Scheduler struct {
	Enabled      bool   `mapstructure:"enabled"`
	Timezone     string `mapstructure:"timezone"`
	GenerateSpec string `mapstructure:"generate_spec"`
	RelinkSpec   string `mapstructure:"relink_spec"`
	AutoStart    bool   `mapstructure:"auto_start"`
}

// Server holds HTTP control surface configuration
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AdminAPIKey     string        `mapstructure:"admin_api_key"`
	CORS            CORS          `mapstructure:"cors"`
}

// CORS holds cross-origin settings for the control surface
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PostHog holds analytics configuration
type PostHog struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Host    string `mapstructure:"host"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".postmill")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.SetEnvPrefix("POSTMILL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".postmill")

	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.path", ".postmill")
	viper.SetDefault("store.timeout", "5s")

	viper.SetDefault("generation.strict_uniqueness", false)
	viper.SetDefault("generation.seed", 0)
	viper.SetDefault("generation.featured", false)
	viper.SetDefault("generation.timeout", "2m")

	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.timezone", "UTC")
	viper.SetDefault("scheduler.generate_spec", "0 6 * * *")
	viper.SetDefault("scheduler.relink_spec", "30 3 * * 0")
	viper.SetDefault("scheduler.auto_start", true)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "2m")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.cors.enabled", false)
	viper.SetDefault("server.cors.allowed_origins", []string{"*"})

	viper.SetDefault("posthog.enabled", false)
	viper.SetDefault("posthog.host", "https://app.posthog.com")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("store.dsn", []string{
		"POSTMILL_DATABASE_URL",
		"DATABASE_URL",
	})

	bindEnvKeys("server.admin_api_key", []string{
		"POSTMILL_ADMIN_API_KEY",
		"ADMIN_API_KEY",
	})

	bindEnvKeys("posthog.api_key", []string{
		"POSTHOG_API_KEY",
		"POSTHOG_KEY",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"POSTMILL_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Store.Path != "" {
		config.Store.Path = expandPath(config.Store.Path)
	}
	if config.Topics.CatalogFile != "" {
		config.Topics.CatalogFile = expandPath(config.Topics.CatalogFile)
	}
	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	durations := map[string]string{
		"store.timeout":      config.Store.Timeout,
		"generation.timeout": config.Generation.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	switch config.Store.Driver {
	case "sqlite":
		if config.Store.Path == "" {
			errors = append(errors, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if config.Store.DSN == "" {
			errors = append(errors, "store.dsn is required for the postgres driver. Set DATABASE_URL or store.dsn in the config file")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown store driver: %s. Supported: sqlite, postgres", config.Store.Driver))
	}

	if config.Scheduler.Timezone != "" {
		if _, err := time.LoadLocation(config.Scheduler.Timezone); err != nil {
			errors = append(errors, fmt.Sprintf("invalid scheduler.timezone %q: %v", config.Scheduler.Timezone, err))
		}
	}

	for key, spec := range map[string]string{
		"scheduler.generate_spec": config.Scheduler.GenerateSpec,
		"scheduler.relink_spec":   config.Scheduler.RelinkSpec,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s %q: %v", key, spec, err))
		}
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid server.port: %d", config.Server.Port))
	}

	if config.PostHog.Enabled && config.PostHog.APIKey == "" {
		errors = append(errors, "PostHog is enabled but no API key is set. Set POSTHOG_API_KEY or posthog.api_key")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// StoreTimeout returns the parsed store timeout, falling back to 5s.
func (s Store) StoreTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// RunTimeout returns the parsed generation timeout, falling back to 2m.
func (g Generation) RunTimeout() time.Duration {
	d, err := time.ParseDuration(g.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
