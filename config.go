package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "./config.yml"
	DefaultEnvFile    = "./config.env"
	EnvPrefix         = "BCAT"
)

// Supported book storage drivers.
const (
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string          `yaml:"git_commit" envconfig:"BCAT_GIT_COMMIT"`
	GitTag                  string          `yaml:"git_tag" envconfig:"BCAT_GIT_TAG"`
	BuildTime               string          `yaml:"build_time" envconfig:"BCAT_BUILD_TIME"`
	IsProduction            bool            `yaml:"is_production" envconfig:"BCAT_IS_PRODUCTION"`
	LogLevel                zapcore.Level   `yaml:"log_level" envconfig:"BCAT_LOG_LEVEL"`
	LogFolder               string          `yaml:"log_folder" envconfig:"BCAT_LOG_FOLDER"`
	LogMaxSize              int             `yaml:"log_max_size" envconfig:"BCAT_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool            `yaml:"ops_endpoints_enable" envconfig:"BCAT_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool            `yaml:"profiler_endpoints_enable" envconfig:"BCAT_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig    `yaml:"server"`
	RateLimit               RateLimitConfig `yaml:"ratelimit"`
	Store                   StoreConfig     `yaml:"store"`
	Mongo                   MongoConfig     `yaml:"mongo"`
	Redis                   RedisConfig     `yaml:"redis"`
	BoltDB                  BoltDBConfig    `yaml:"boltdb"`
	SQLite                  SQLiteConfig    `yaml:"sqlite"`
	Mirror                  MirrorConfig    `yaml:"mirror"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BCAT_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BCAT_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BCAT_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BCAT_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BCAT_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BCAT_SERVER_SHUTDOWN_TIMEOUT"`
	AllowedOrigins  string        `yaml:"allowed_origins" envconfig:"BCAT_SERVER_ALLOWED_ORIGINS"`
}

type RateLimitConfig struct {
	Enable bool    `yaml:"enable" envconfig:"BCAT_RATELIMIT_ENABLE"`
	RPS    float64 `yaml:"rps" envconfig:"BCAT_RATELIMIT_RPS"`
	Burst  int     `yaml:"burst" envconfig:"BCAT_RATELIMIT_BURST"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"BCAT_STORE_DRIVER"`
}

type MongoConfig struct {
	URI                    string        `yaml:"uri" envconfig:"BCAT_MONGO_URI"`
	Database               string        `yaml:"database" envconfig:"BCAT_MONGO_DATABASE"`
	Collection             string        `yaml:"collection" envconfig:"BCAT_MONGO_COLLECTION"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout" envconfig:"BCAT_MONGO_CONNECT_TIMEOUT"`
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout" envconfig:"BCAT_MONGO_SERVER_SELECTION_TIMEOUT"`
	MaxPoolSize            uint64        `yaml:"max_pool_size" envconfig:"BCAT_MONGO_MAX_POOL_SIZE"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BCAT_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BCAT_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BCAT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BCAT_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BCAT_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BCAT_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BCAT_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BCAT_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BCAT_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BCAT_REDIS_DATABASE_INDEX"`
	HashName      string        `yaml:"hash_name" envconfig:"BCAT_REDIS_HASH_NAME"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BCAT_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BCAT_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BCAT_BOLTDB_BUCKET_NAME"`
}

type SQLiteConfig struct {
	FilePath    string        `yaml:"filepath" envconfig:"BCAT_SQLITE_FILE_PATH"`
	BusyTimeout time.Duration `yaml:"busy_timeout" envconfig:"BCAT_SQLITE_BUSY_TIMEOUT"`
}

// MirrorConfig controls the asynchronous copy of every change into a bolt database.
type MirrorConfig struct {
	Enable     bool          `yaml:"enable" envconfig:"BCAT_MIRROR_ENABLE"`
	QueueName  string        `yaml:"queue_name" envconfig:"BCAT_MIRROR_QUEUE_NAME"`
	FilePath   string        `yaml:"filepath" envconfig:"BCAT_MIRROR_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BCAT_MIRROR_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BCAT_MIRROR_BUCKET_NAME"`
}

// BoltDB returns the bolt settings of the mirror database.
func (mc *MirrorConfig) BoltDB() *BoltDBConfig {
	return &BoltDBConfig{FilePath: mc.FilePath, Timeout: mc.Timeout, BucketName: mc.BucketName}
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and overrides the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// SetDefaults fills in values which were not provided by any source.
func SetDefaults(config *Config) {
	if config.Store.Driver == "" {
		config.Store.Driver = DriverMongo
	}
	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}
	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}
	if config.Server.RequestTimeout <= 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}
	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}
	if config.Server.AllowedOrigins == "" {
		config.Server.AllowedOrigins = "*"
	}
	if config.Mongo.Database == "" {
		config.Mongo.Database = "book_db"
	}
	if config.Mongo.Collection == "" {
		config.Mongo.Collection = "books"
	}
	if config.Redis.HashName == "" {
		config.Redis.HashName = DefaultBooksHash
	}
	if config.BoltDB.BucketName == "" {
		config.BoltDB.BucketName = "books"
	}
	if config.Mirror.QueueName == "" {
		config.Mirror.QueueName = DefaultEventsQueue
	}
	if config.Mirror.BucketName == "" {
		config.Mirror.BucketName = "books.mirror"
	}
	if config.RateLimit.Burst <= 0 {
		config.RateLimit.Burst = 1
	}
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
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

	SetDefaults(config)

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	switch config.Store.Driver {
	case DriverMongo:
		if len(config.Mongo.URI) == 0 {
			return errors.New("make sure to set a valid mongo uri in configuration file")
		}
	case DriverRedis:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	case DriverBolt:
		if len(config.BoltDB.FilePath) == 0 {
			return errors.New("make sure to set a valid boltdb file path in configuration file")
		}
	case DriverSQLite:
		if len(config.SQLite.FilePath) == 0 {
			return errors.New("make sure to set a valid sqlite file path in configuration file")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported store driver %q", config.Store.Driver)
	}

	if config.Mirror.Enable {
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("mirror requires valid redis address and port in configuration file")
		}
		if len(config.Mirror.FilePath) == 0 {
			return errors.New("mirror requires a valid boltdb file path in configuration file")
		}
		if config.Store.Driver == DriverBolt && config.Mirror.FilePath == config.BoltDB.FilePath {
			return errors.New("mirror and bolt store must not share the same database file")
		}
	}

	if config.RateLimit.Enable && config.RateLimit.RPS <= 0 {
		return errors.New("make sure to set a positive ratelimit rps in configuration file")
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The env file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BCAT`.
	err = LoadConfigEnvs(EnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
