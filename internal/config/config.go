package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	HTTPQuery HTTPQueryConfig `mapstructure:"httpquery"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	MatchCacheSize int `mapstructure:"match_cache_size"` // compiled match programs kept in memory
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

// MetadataConfig selects where entity definitions come from.
type MetadataConfig struct {
	Source string `mapstructure:"source"` // "file" or "database"
	File   string `mapstructure:"file"`
}

// HTTPQueryConfig holds the filter builder rules.
type HTTPQueryConfig struct {
	IgnorePatterns []string    `mapstructure:"ignore_patterns"`
	AliasRules     []AliasRule `mapstructure:"alias_rules"` // evaluated in order
}

// AliasRule rewrites path words whose probe "<Entity>:<path>" matches Pattern.
type AliasRule struct {
	Pattern     string `mapstructure:"pattern"`
	Replacement string `mapstructure:"replacement"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// UsesDatabase returns true if entity definitions are read from the metadata tables.
func (m MetadataConfig) UsesDatabase() bool {
	return m.Source == "database"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.match_cache_size", 256)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "httpquery")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("metadata.source", "file")
	v.SetDefault("metadata.file", "./entities.yaml")
	v.SetDefault("httpquery.ignore_patterns", []string{"page", "per_page", "fields"})
}

// Load reads app.yaml from the working directory (or ../..), or the file at
// path when path is not empty. A missing default app.yaml is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("../..")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return Decode(v)
}

// Decode applies defaults and environment overrides to v and unmarshals it.
func Decode(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
