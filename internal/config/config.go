package config

import (
	"os"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

const (
	defaultListen   = ":8000"
	defaultLogLevel = "info"
	defaultService  = "coa"

	defaultSampleRate = 1.0
)

type Config struct {
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
	Trace   Trace   `yaml:"trace"`
}

type Server struct {
	Listen      string `yaml:"listen"`
	PostgresDsn string `yaml:"postgresDsn"`
	AutoMigrate bool   `yaml:"autoMigrate"`
	RedisAddr   string `yaml:"redisAddr"`
	RedisDB     int    `yaml:"redisDB"`
	RedisPass   string `yaml:"redisPassword"`
}

type Logging struct {
	Level string `yaml:"level"` // debug, info, warn, error
	// SQLLevel controls the gorm logger: silent, error, warn, info
	SQLLevel string `yaml:"sqlLevel"`
}

type Trace struct {
	Enable      bool     `yaml:"enable"`
	Endpoint    string   `yaml:"endpoint"`
	ServiceName string   `yaml:"serviceName"`
	SampleRate  *float64 `yaml:"sampleRate"` // 1 when absent, 0 disables sampling
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "open config")
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}

	config.applyEnv()
	config.applyDefaults()

	if config.Server.PostgresDsn == "" {
		return Config{}, errors.New("server.postgresDsn is required")
	}

	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("COA_POSTGRES_DSN"); v != "" {
		c.Server.PostgresDsn = v
	}
	if v := os.Getenv("COA_REDIS_ADDR"); v != "" {
		c.Server.RedisAddr = v
	}
	if v := os.Getenv("COA_LISTEN"); v != "" {
		c.Server.Listen = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.SQLLevel == "" {
		c.Logging.SQLLevel = "warn"
	}
	if c.Trace.ServiceName == "" {
		c.Trace.ServiceName = defaultService
	}
	if c.Trace.SampleRate == nil {
		rate := defaultSampleRate
		c.Trace.SampleRate = &rate
	}
}
