package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	UploadDir    string `env:"UPLOAD_DIR"    envDefault:"uploaded_videos"`
	ProcessedDir string `env:"PROCESSED_DIR" envDefault:"processed_videos"`
	MaxUploadMB  int64  `env:"MAX_UPLOAD_MB" envDefault:"512"`

	OutputFourCC string `env:"OUTPUT_FOURCC" envDefault:"mp4v"`

	RetentionHours int    `env:"RETENTION_HOURS" envDefault:"24"`
	SweepSchedule  string `env:"SWEEP_SCHEDULE"  envDefault:"@hourly"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
