package config

import "time"

type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

type StorageDriver string

const (
	StorageMysql  StorageDriver = "mysql"
	StorageMemory StorageDriver = "memory"
)

type Config struct {
	Host      string `envconfig:"HOST" mapstructure:"host"`
	Port      string `envconfig:"PORT" mapstructure:"port"`
	Prefix    string `envconfig:"PREFIX" mapstructure:"prefix"`
	Mode      Mode   `envconfig:"MODE" mapstructure:"mode"`
	Storage   Storage
	Mysql     Mysql
	Redis     Redis
	JWT       JWT
	Log       Log `mapstructure:"Log"`
	Sentry    Sentry
	OTel      OTel
	S3        S3
	Kafka     Kafka
	Webhook   Webhook
	RateLimit RateLimit
	Checkin   Checkin
	Sweep     Sweep
}

type Storage struct {
	Driver StorageDriver `envconfig:"DRIVER" mapstructure:"driver"`
}

type Mysql struct {
	Host     string `envconfig:"HOST" mapstructure:"host"`
	Port     string `envconfig:"PORT" mapstructure:"port"`
	Username string `envconfig:"USERNAME" mapstructure:"username"`
	Password string `envconfig:"PASSWORD" mapstructure:"password"`
	DBName   string `envconfig:"DB_NAME" mapstructure:"db_name"`
}

type Redis struct {
	Host     string `envconfig:"HOST" mapstructure:"host"`
	Port     string `envconfig:"PORT" mapstructure:"port"`
	Password string `envconfig:"PASSWORD" mapstructure:"password"`
	DB       int    `envconfig:"DB" mapstructure:"db"`
}

type JWT struct {
	AccessSecret string `envconfig:"ACCESS_SECRET" mapstructure:"access_secret"`
	AccessExpire int64  `envconfig:"ACCESS_EXPIRE" mapstructure:"access_expire"` // 秒
}

type Log struct {
	FilePath   string `envconfig:"FILE_PATH" mapstructure:"file_path"`     // 日志文件路径
	Level      string `envconfig:"LEVEL" mapstructure:"level"`             // 日志级别：debug, info, warn, error
	MaxSize    int    `envconfig:"MAX_SIZE" mapstructure:"max_size"`       // 日志文件最大大小（MB）
	MaxBackups int    `envconfig:"MAX_BACKUPS" mapstructure:"max_backups"` // 保留的旧日志文件数
	MaxAge     int    `envconfig:"MAX_AGE" mapstructure:"max_age"`         // 日志文件保留天数
	Compress   bool   `envconfig:"COMPRESS" mapstructure:"compress"`       // 是否压缩旧日志文件
}

type Sentry struct {
	Dsn         string        `envconfig:"DSN" mapstructure:"dsn"`
	Environment string        `envconfig:"ENVIRONMENT" mapstructure:"environment"`
	SampleRate  float64       `envconfig:"SAMPLE_RATE" mapstructure:"sample_rate"` // 性能追踪采样率
	Tracing     SentryTracing `mapstructure:"tracing"`
}

type SentryTracing struct {
	DBSlowThresholdMs    int  `envconfig:"DB_SLOW_THRESHOLD_MS" mapstructure:"db_slow_threshold_ms"`
	RedisSlowThresholdMs int  `envconfig:"REDIS_SLOW_THRESHOLD_MS" mapstructure:"redis_slow_threshold_ms"`
	TraceHTTPCalls       bool `envconfig:"TRACE_HTTP_CALLS" mapstructure:"trace_http_calls"`
}

type OTel struct {
	Enable      bool   `envconfig:"ENABLE" mapstructure:"enable"`
	AgentHost   string `envconfig:"AGENT_HOST" mapstructure:"agent_host"`
	AgentPort   string `envconfig:"AGENT_PORT" mapstructure:"agent_port"`
	ServiceName string `envconfig:"SERVICE_NAME" mapstructure:"service_name"`
}

type S3 struct {
	Endpoint        string `envconfig:"ENDPOINT" mapstructure:"endpoint"`
	BaseURL         string `envconfig:"BASE_URL" mapstructure:"base_url"`
	Bucket          string `envconfig:"BUCKET" mapstructure:"bucket"`
	Region          string `envconfig:"REGION" mapstructure:"region"`
	AccessKey       string `envconfig:"ACCESS_KEY" mapstructure:"access_key"`
	SecretAccessKey string `envconfig:"SECRET_KEY" mapstructure:"secret_key"`
	Prefix          string `envconfig:"PREFIX" mapstructure:"prefix"`
	UsePathStyle    bool   `envconfig:"PATH_STYLE" mapstructure:"path_style"`
}

type Kafka struct {
	Brokers []string `envconfig:"BROKERS" mapstructure:"brokers"`
}

type Webhook struct {
	URL    string `envconfig:"URL" mapstructure:"url"`
	Secret string `envconfig:"SECRET" mapstructure:"secret"`
}

type RateLimit struct {
	Rate string `envconfig:"RATE" mapstructure:"rate"` // 例如 "20-M"，为空则不限流
}

type Checkin struct {
	GracePeriod   time.Duration `envconfig:"GRACE_PERIOD" mapstructure:"grace_period"`     // 开始前允许签到的提前量
	LateThreshold time.Duration `envconfig:"LATE_THRESHOLD" mapstructure:"late_threshold"` // 开始后多久算迟到
	MaxAttempts   int           `envconfig:"MAX_ATTEMPTS" mapstructure:"max_attempts"`     // 无效签到次数上限，0 表示不限
}

type Sweep struct {
	Interval time.Duration `envconfig:"INTERVAL" mapstructure:"interval"`
}

func (r Redis) Enabled() bool {
	return r.Host != ""
}

func (s S3) Enabled() bool {
	return s.Bucket != ""
}
