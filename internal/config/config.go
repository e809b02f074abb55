package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"live-auction/pkg/utils"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Bus      BusConfig      `mapstructure:"bus"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Instance InstanceConfig `mapstructure:"instance"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	APIPort      int    `mapstructure:"api_port"`
	RealtimePort int    `mapstructure:"realtime_port"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LockWaitTimeout int           `mapstructure:"lock_wait_timeout"`
}

type BusConfig struct {
	SubscribeAttempts int           `mapstructure:"subscribe_attempts"`
	SubscribeBackoff  time.Duration `mapstructure:"subscribe_backoff"`
}

type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type CacheConfig struct {
	ListingTTL time.Duration `mapstructure:"listing_ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.api_port", 8080)
	viper.SetDefault("server.realtime_port", 8081)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("mysql.lock_wait_timeout", 5)
	viper.SetDefault("bus.subscribe_attempts", 10)
	viper.SetDefault("bus.subscribe_backoff", time.Second)
	viper.SetDefault("sweeper.interval", 10*time.Second)
	viper.SetDefault("cache.listing_ttl", 30*time.Second)
	viper.SetDefault("instance.id", "")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/live-auction/")

	viper.AutomaticEnv()

	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.api_port", "API_PORT")
	viper.BindEnv("server.realtime_port", "REALTIME_PORT")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("mysql.lock_wait_timeout", "MYSQL_LOCK_WAIT_TIMEOUT")
	viper.BindEnv("bus.subscribe_attempts", "BUS_SUBSCRIBE_ATTEMPTS")
	viper.BindEnv("bus.subscribe_backoff", "BUS_SUBSCRIBE_BACKOFF")
	viper.BindEnv("sweeper.interval", "SWEEPER_INTERVAL")
	viper.BindEnv("cache.listing_ttl", "CACHE_LISTING_TTL")
	viper.BindEnv("instance.id", "INSTANCE_ID")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine, defaults and env vars apply.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Every replica needs a distinct identity for event echo suppression.
	if config.Instance.ID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "instance"
		}
		config.Instance.ID = utils.GenerateID(host)
	}

	return &config, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"api=%s:%d realtime=%s:%d redis=%s instance=%s",
		c.Server.Host, c.Server.APIPort,
		c.Server.Host, c.Server.RealtimePort,
		c.Redis.Address,
		c.Instance.ID,
	)
}
