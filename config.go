package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by the app.
const EnvPrefix = "LADM"

// Session state store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBolt   = "bolt"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string             `yaml:"git_commit" envconfig:"LADM_GIT_COMMIT"`
	GitTag             string             `yaml:"git_tag" envconfig:"LADM_GIT_TAG"`
	BuildTime          string             `yaml:"build_time" envconfig:"LADM_BUILD_TIME"`
	IsProduction       bool               `yaml:"is_production" envconfig:"LADM_IS_PRODUCTION"`
	LogLevel           zapcore.Level      `yaml:"log_level" envconfig:"LADM_LOG_LEVEL"`
	LogFolder          string             `yaml:"log_folder" envconfig:"LADM_LOG_FOLDER"`
	LogMaxSize         int                `yaml:"log_max_size" envconfig:"LADM_LOG_MAX_SIZE"`
	ProfilerEnable     bool               `yaml:"profiler_enable" envconfig:"LADM_PROFILER_ENABLE"`
	OpsEndpointsEnable bool               `yaml:"ops_endpoints_enable" envconfig:"LADM_OPS_ENDPOINTS_ENABLE"`
	Backend            BackendConfig      `yaml:"backend"`
	Server             ServerConfig       `yaml:"server"`
	Session            SessionConfig      `yaml:"session"`
	Notification       NotificationConfig `yaml:"notification"`
	Activity           ActivityConfig     `yaml:"activity"`
	Redis              RedisConfig        `yaml:"redis"`
	BoltDB             BoltDBConfig       `yaml:"boltdb"`
}

// BackendConfig locates the library REST service.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"LADM_BACKEND_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"LADM_BACKEND_TIMEOUT"`
}

type ServerConfig struct {
	Host                    string        `yaml:"host" envconfig:"LADM_SERVER_HOST"`
	Port                    string        `yaml:"port" envconfig:"LADM_SERVER_PORT"`
	ReadTimeout             time.Duration `yaml:"read_timeout" envconfig:"LADM_SERVER_READ_TIMEOUT"`
	WriteTimeout            time.Duration `yaml:"write_timeout" envconfig:"LADM_SERVER_WRITE_TIMEOUT"`
	LongRequestWriteTimeout time.Duration `yaml:"long_request_write_timeout" envconfig:"LADM_SERVER_LONG_REQUEST_WRITE_TIMEOUT"`
	RequestTimeout          time.Duration `yaml:"request_timeout" envconfig:"LADM_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout         time.Duration `yaml:"shutdown_timeout" envconfig:"LADM_SERVER_SHUTDOWN_TIMEOUT"`
}

// SessionConfig drives the per-browser workspaces.
type SessionConfig struct {
	CookieName      string        `yaml:"cookie_name" envconfig:"LADM_SESSION_COOKIE_NAME"`
	Store           string        `yaml:"store" envconfig:"LADM_SESSION_STORE"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"LADM_SESSION_IDLE_TIMEOUT"`
	StateTTL        time.Duration `yaml:"state_ttl" envconfig:"LADM_SESSION_STATE_TTL"`
	JanitorInterval time.Duration `yaml:"janitor_interval" envconfig:"LADM_SESSION_JANITOR_INTERVAL"`
	StateBucket     string        `yaml:"state_bucket" envconfig:"LADM_SESSION_STATE_BUCKET"`
}

type NotificationConfig struct {
	Timeout time.Duration `yaml:"timeout" envconfig:"LADM_NOTIFICATION_TIMEOUT"`
}

// ActivityConfig drives the activity journal.
type ActivityConfig struct {
	Enable bool   `yaml:"enable" envconfig:"LADM_ACTIVITY_ENABLE"`
	Queue  string `yaml:"queue" envconfig:"LADM_ACTIVITY_QUEUE"`
	Bucket string `yaml:"bucket" envconfig:"LADM_ACTIVITY_BUCKET"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"LADM_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"LADM_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"LADM_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"LADM_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"LADM_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"LADM_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"LADM_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"LADM_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"LADM_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"LADM_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath string        `yaml:"filepath" envconfig:"LADM_BOLTDB_FILE_PATH"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"LADM_BOLTDB_TIMEOUT"`
}

// BackendBudget returns the time given to the backend calls of one admin
// request. The rest of the request timeout is kept for saving the session
// and writing the response. Zero means no bound.
func (sc *ServerConfig) BackendBudget() time.Duration {
	return sc.RequestTimeout * 4 / 5
}

// DefaultConfig returns the settings used for any value not provided.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   zapcore.InfoLevel,
		LogFolder:  "./logs",
		LogMaxSize: 10,
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 8 * time.Second,
		},
		Server: ServerConfig{
			Host:                    "0.0.0.0",
			Port:                    "8000",
			ReadTimeout:             5 * time.Second,
			WriteTimeout:            15 * time.Second,
			LongRequestWriteTimeout: 30 * time.Second,
			RequestTimeout:          12 * time.Second,
			ShutdownTimeout:         30 * time.Second,
		},
		Session: SessionConfig{
			CookieName:      "ladm_session",
			Store:           StoreMemory,
			IdleTimeout:     30 * time.Minute,
			StateTTL:        24 * time.Hour,
			JanitorInterval: time.Minute,
			StateBucket:     "sessions",
		},
		Notification: NotificationConfig{Timeout: DefaultNotificationTTL},
		Activity: ActivityConfig{
			Queue:  "ladm.activities",
			Bucket: "activities",
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        "6379",
			DialTimeout: 5 * time.Second,
			PoolSize:    10,
		},
		BoltDB: BoltDBConfig{
			FilePath: "./library-admin.db",
			Timeout:  time.Second,
		},
	}
}

// LoadConfigFile decodes the yaml file on top of the default settings.
func LoadConfigFile(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	file, err := os.Open(configFile)
	if err != nil {
		return cfg, err
	}
	defer file.Close()
	if err = yaml.NewDecoder(file).Decode(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables into the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig sets the build values if provided and checks the settings.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if u, err := url.Parse(config.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base url %q", config.Backend.BaseURL)
	}

	if config.Server.RequestTimeout > 0 && config.Backend.Timeout > config.Server.BackendBudget() {
		return fmt.Errorf("backend timeout %v exceeds the %v available to backend calls within the request timeout", config.Backend.Timeout, config.Server.BackendBudget())
	}

	switch config.Session.Store {
	case StoreMemory, StoreBolt:
	case StoreRedis:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	default:
		return fmt.Errorf("unknown session store %q", config.Session.Store)
	}

	if config.Activity.Enable && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("activity journal requires a valid redis address and port")
	}

	if config.LogMaxSize <= 0 {
		return errors.New("log max size must be positive")
	}
	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. A missing yaml or env file is not an
// error, the defaults and the process environment still apply.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	config, err := LoadConfigFile(configFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to load configurations from file: %w", err)
	}

	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %w", err)
	}

	// Use environment variables with prefix `LADM`.
	err = LoadConfigEnvs(EnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %w", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %w", err)
	}
	return config, nil
}
