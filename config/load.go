package config

import (
	"activity-assistant/tools"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var cfg = defaults()

func defaults() *Config {
	return &Config{
		Host:    "0.0.0.0",
		Port:    "8080",
		Prefix:  "api",
		Mode:    ModeDebug,
		Storage: Storage{Driver: StorageMemory},
		JWT:     JWT{AccessExpire: 7 * 24 * 3600},
		Checkin: Checkin{
			GracePeriod:   30 * time.Minute,
			LateThreshold: 15 * time.Minute,
		},
		Sweep: Sweep{Interval: time.Minute},
	}
}

// Init 读取配置文件（可选，未指定时从工作目录向上查找 config.yaml）并用环境变量覆盖
func Init() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = tools.SearchFile("config.yaml")
	}
	c, err := Load(path)
	if err != nil {
		panic(err)
	}
	cfg = c
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序合并配置
func Load(path string) (*Config, error) {
	c := defaults()

	v := viper.New()
	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	} else if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := envconfig.Process("", c); err != nil {
		return nil, errors.Wrap(err, "process env")
	}
	c.Mode = Mode(strings.ToLower(string(c.Mode)))
	if c.Checkin.GracePeriod <= 0 {
		c.Checkin.GracePeriod = 30 * time.Minute
	}
	if c.Checkin.LateThreshold < 0 {
		c.Checkin.LateThreshold = 15 * time.Minute
	}
	return c, nil
}

func Get() *Config {
	return cfg
}

// Set 替换全局配置，仅供测试使用
func Set(c *Config) {
	cfg = c
}
