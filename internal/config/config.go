package config

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Scheme string `koanf:"scheme" default:"http"`
	Port   int    `koanf:"port" default:"8082" validate:"min=1,max=65535"`
	Host   string `koanf:"host" default:"localhost"`

	ReadTimeout     time.Duration `koanf:"read_timeout" default:"5s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" default:"0s"` // SSE streams stay open
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" default:"30s"`

	AllowOrigins []string `koanf:"alloworigins" default:"[]"`
	HealthCheck  bool     `koanf:"health_check" default:"true"`
	Pprof        bool     `koanf:"pprof" default:"false"`
}

func (s *ServerConfig) GetServerURL() string {
	return s.Scheme + "://" + s.Host + ":" + strconv.Itoa(s.Port)
}

type APPConfig struct {
	Environtment string        `koanf:"environtment" default:"development"`
	LogLevel     zerolog.Level `koanf:"log_level" default:"debug"`
}

type EngineConfig struct {
	RefreshInterval time.Duration `koanf:"refresh_interval" default:"60s" validate:"gte=1s"`
	TickInterval    time.Duration `koanf:"tick_interval" default:"1s" validate:"gt=0"`
	PrefetchDelay   time.Duration `koanf:"prefetch_delay" default:"100ms" validate:"gte=0"`
	SortModes       []string      `koanf:"sort_modes" default:"[\"hot\",\"new\",\"rising\",\"controversial\",\"top\"]" validate:"min=1,dive,oneof=hot new rising controversial top"`
	Prefetch        bool          `koanf:"prefetch" default:"true"`
}

// RefreshTicks is the refresh interval counted in timer ticks, at least one.
func (e *EngineConfig) RefreshTicks() int {
	tick := e.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	return max(int(e.RefreshInterval/tick), 1)
}

type UpstreamConfig struct {
	BaseURL string `koanf:"base_url" default:"https://www.reddit.com" validate:"required,url"`
	Limit   int    `koanf:"limit" default:"50" validate:"min=1,max=100"`
}

type CollyConfig struct {
	MaxSize   int           `koanf:"max_size" default:"4194304"`
	UserAgent string        `koanf:"user_agent" default:"feedsync/0.1 (+https://github.com/feedsync)"`
	TimeOut   time.Duration `koanf:"timeout" default:"30s"`
}

type StoreConfig struct {
	Driver     string `koanf:"driver" default:"badger" validate:"oneof=badger sqlite"`
	BadgerPath string `koanf:"badger_path" default:"./data/badger"`
	InMemory   bool   `koanf:"in_memory" default:"false"`
	SQLitePath string `koanf:"sqlite_path" default:"./data/feedsync.db"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled" default:"false"`
	ServiceName  string  `koanf:"service_name" default:"feedsync"`
	OTLPEndpoint string  `koanf:"otlp_endpoint" default:"localhost:4317"`
	SampleRatio  float64 `koanf:"sample_ratio" default:"1" validate:"gte=0,lte=1"`
}

type Config struct {
	APP       APPConfig
	Server    ServerConfig
	Engine    EngineConfig
	Upstream  UpstreamConfig
	Colly     CollyConfig
	Store     StoreConfig
	Telemetry TelemetryConfig
}
