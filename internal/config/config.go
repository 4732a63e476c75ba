package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Jira       JiraConfig       `yaml:"jira"`
	RiskEngine RiskEngineConfig `yaml:"risk_engine"`
	Import     ImportConfig     `yaml:"import"`
	Redis      RedisConfig      `yaml:"redis"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"` // debug, release, test
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres, memory
	DSN    string `yaml:"dsn"`
}

// JiraConfig describes the default issue-tracker connection. Additional
// connections can be stored per deployment via the trackers API; every
// client call receives an explicit connection value either way.
type JiraConfig struct {
	BaseURL        string `yaml:"base_url"` // e.g. https://yourcompany.atlassian.net
	AuthType       string `yaml:"auth_type"` // basic, bearer
	Email          string `yaml:"email"`
	APIToken       string `yaml:"api_token"`
	BearerToken    string `yaml:"bearer_token"`
	TeamField      string `yaml:"team_field"`      // custom field id holding the team name
	ARTField       string `yaml:"art_field"`       // custom field id holding the release-train name
	TimeoutSeconds int    `yaml:"timeout_seconds"` // per-request timeout for tracker calls
}

// RiskEngineConfig describes the external risk-scoring collaborator: an
// opaque command fed a JSON payload on stdin, expected to print a JSON
// score on stdout. Failures always degrade to the built-in formula.
type RiskEngineConfig struct {
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type ImportConfig struct {
	DemoMode   bool   `yaml:"demo_mode"`   // generate synthetic data instead of calling the tracker
	PageSize   int    `yaml:"page_size"`   // search page size for bulk import
	ResyncCron string `yaml:"resync_cron"` // cron spec for periodic resync; empty disables
}

// RedisConfig for optional async webhook event queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := *DefaultConfig()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "8080",
			Mode:     "debug",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "depflow.db",
		},
		Jira: JiraConfig{
			AuthType:       "basic",
			TeamField:      "customfield_10001",
			ARTField:       "customfield_10002",
			TimeoutSeconds: 10,
		},
		RiskEngine: RiskEngineConfig{
			TimeoutSeconds: 10,
		},
		Import: ImportConfig{
			PageSize: 50,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Server.LogLevel = level
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if baseURL := os.Getenv("JIRA_BASE_URL"); baseURL != "" {
		c.Jira.BaseURL = baseURL
	}
	if authType := os.Getenv("JIRA_AUTH_TYPE"); authType != "" {
		c.Jira.AuthType = authType
	}
	if email := os.Getenv("JIRA_EMAIL"); email != "" {
		c.Jira.Email = email
	}
	if token := os.Getenv("JIRA_API_TOKEN"); token != "" {
		c.Jira.APIToken = token
	}
	if token := os.Getenv("JIRA_BEARER_TOKEN"); token != "" {
		c.Jira.BearerToken = token
		c.Jira.AuthType = "bearer"
	}
	if cmd := os.Getenv("RISK_ENGINE_COMMAND"); cmd != "" {
		c.RiskEngine.Command = cmd
	}
	if demo := os.Getenv("IMPORT_DEMO_MODE"); demo != "" {
		c.Import.DemoMode = demo == "true" || demo == "1"
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	// Remove redis:// prefix
	url := strings.TrimPrefix(redisURL, "redis://")

	// Extract password if present
	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	// Extract db number if present
	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	// Remaining is host:port
	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
