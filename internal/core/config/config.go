package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	CORSOrigins     []string
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level      string
	JSON       bool
	File       string // empty = stdout only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret             string
	Issuer             string
	AccessTokenTTLHour int
}

type Redis struct {
	Addr         string `mapstructure:"addr"` // empty = classification cache disabled
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	ResultTTLMin int    `mapstructure:"result_ttl_min"`
}

type DB struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Inference points at the model-serving sidecar that holds the fine-tuned
// classifier. The sidecar must be reachable at startup.
type Inference struct {
	BaseURL    string
	TimeoutSec int
}

// OCR points at the text-extraction sidecar used by /analyzeImage.
type OCR struct {
	BaseURL    string
	TimeoutSec int
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	Inference Inference
	OCR       OCR
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.JWT.AccessTokenTTLHour <= 0 {
		c.JWT.AccessTokenTTLHour = 24
	}
	if c.Inference.TimeoutSec <= 0 {
		c.Inference.TimeoutSec = 30
	}
	if c.OCR.TimeoutSec <= 0 {
		c.OCR.TimeoutSec = 30
	}
	if c.Redis.ResultTTLMin <= 0 {
		c.Redis.ResultTTLMin = 60
	}
	if len(c.App.HTTP.CORSOrigins) == 0 {
		c.App.HTTP.CORSOrigins = []string{"http://localhost:5173", "http://localhost:5174"}
	}
}
