package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string        `mapstructure:"service_name"`
	Mongo       MongoConfig   `mapstructure:"mongo"`
	NATS        NATSConfig    `mapstructure:"nats"`
	Redis       RedisConfig   `mapstructure:"redis"`
	SMTP        SMTPConfig    `mapstructure:"smtp"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
	Sweep       SweepConfig   `mapstructure:"sweep"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	SenderEmail string `mapstructure:"sender_email"`
}

type MetricsConfig struct {
	Port string `mapstructure:"port"`
}

// SweepConfig drives the background schedulers: how often to expire listings
// past their deadline and how often to re-run the saved-search sweep.
type SweepConfig struct {
	ExpiryInterval time.Duration `mapstructure:"expiry_interval"`
	AlertInterval  time.Duration `mapstructure:"alert_interval"`
	BatchSize      int64         `mapstructure:"batch_size"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetDefault("service_name", "classifieds_service")

	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "classifieds_db")
	viper.SetDefault("mongo.connect_timeout", "10s")
	viper.SetDefault("mongo.min_pool_size", 0)
	viper.SetDefault("mongo.max_pool_size", 100)

	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.connect_timeout", "5s")

	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("smtp.port", 587)

	viper.SetDefault("metrics.port", "9094")

	viper.SetDefault("sweep.expiry_interval", "1m")
	viper.SetDefault("sweep.alert_interval", "30s")
	viper.SetDefault("sweep.batch_size", 200)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		if fi, _ := os.Stat(path); !fi.IsDir() {
			viper.SetConfigFile(path)
		} else {
			viper.AddConfigPath(path)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CLASSIFIEDS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found; using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
