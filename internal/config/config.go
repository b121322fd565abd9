package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Postgres DBConfig
	Redis    RedisConfig
	S3       S3Config
	Worker   WorkerConfig
	FFmpeg   FFmpegConfig
	Logger   Logger
}

type ServerConfig struct {
	AppVersion   string
	Port         string
	Mode         string
	JwtSecretKey string
}

type WorkerConfig struct {
	PollInterval    time.Duration
	ReportInterval  time.Duration
	ProcessingLease time.Duration
	FetchLimit      int
	BatchSize       int
	ScratchDir      string
	MaxCPUUsage     float64
	Identity        string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

type FFmpegConfig struct {
	FFmpegPath  string
	FFprobePath string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = 60 * time.Second
	}
	if c.Worker.ReportInterval == 0 {
		c.Worker.ReportInterval = 10 * time.Minute
	}
	if c.Worker.ProcessingLease == 0 {
		c.Worker.ProcessingLease = 30 * time.Minute
	}
	if c.Worker.FetchLimit == 0 {
		c.Worker.FetchLimit = 5
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 3
	}
	if c.Worker.ScratchDir == "" {
		c.Worker.ScratchDir = "tmp_remux"
	}
	if c.Worker.Identity == "" {
		c.Worker.Identity = "remux-worker"
	}
	if c.FFmpeg.FFmpegPath == "" {
		c.FFmpeg.FFmpegPath = "ffmpeg"
	}
	if c.FFmpeg.FFprobePath == "" {
		c.FFmpeg.FFprobePath = "ffprobe"
	}
}
