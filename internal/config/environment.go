package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

var (
	_k      *koanf.Koanf
	_config *Config
	once    sync.Once
	initErr error
)

func GetConfig() *Config {
	if _config == nil {
		log.Info().Msg("config is nil trying to init")
		if err := InitConfig(); err != nil {
			log.Error().Msgf("error initializing config: %v", err)
		}
	}

	return _config
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func InitConfig() error {
	once.Do(func() {
		_k = koanf.New(".")
		_config = &Config{}

		configFile := GetEnv("CONFIG_FILE", ".env.toml")

		if err := _k.Load(file.Provider(configFile), toml.Parser()); err != nil {
			log.Debug().Msgf("error loading config [TOML]: %v", err)
		}

		if err := _k.Load(file.Provider(".env"), dotenv.Parser()); err != nil {
			log.Trace().Msgf("error loading config [DOTENV]: %v", err)
		}

		initErr = Load(_k, _config)
		if initErr != nil {
			return
		}

		log.Trace().Msgf("k: %+v", _config)

		zerolog.SetGlobalLevel(_config.APP.LogLevel)
	})

	return initErr
}

// Load fills cfg with defaults, overlays the values held by k and validates the result.
func Load(k *koanf.Koanf, cfg *Config) error {
	if err := defaults.Set(cfg); err != nil {
		return err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Default returns a validated configuration built from defaults only.
func Default() *Config {
	cfg := &Config{}
	if err := Load(koanf.New("."), cfg); err != nil {
		log.Error().Err(err).Msg("Default configuration failed validation")
	}
	return cfg
}

func IsDevMode() bool {
	if _config == nil {
		return true
	}

	return (_config.APP.Environtment == "development")
}
