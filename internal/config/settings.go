package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Settings configures the scanner binary.
type Settings struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	TickRate     time.Duration `env:"SCANNER_TICK_RATE" envDefault:"20ms"`
	Instances    int           `env:"SCANNER_INSTANCES" envDefault:"1"`
	Lights       int           `env:"SCANNER_LIGHTS" envDefault:"8"`
	Scale        float64       `env:"SCANNER_SCALE" envDefault:"10"`
	TablePath    string        `env:"SCANNER_TABLE"`
	StopAfter    time.Duration `env:"SCANNER_STOP_AFTER" envDefault:"0s"`
	RestartAfter time.Duration `env:"SCANNER_RESTART_AFTER" envDefault:"2s"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// LoadSettings loads the given .env files (".env" when none are given),
// ignoring missing ones, then parses the environment. Variables already
// set in the environment win over .env entries.
func LoadSettings(envFiles ...string) (Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, errors.Wrapf(err, "load %s", f)
		}
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, errors.Wrap(err, "parse environment")
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks ranges env tags cannot express.
func (s Settings) Validate() error {
	switch {
	case s.TickRate <= 0:
		return invalidf("SCANNER_TICK_RATE must be positive, got %s", s.TickRate)
	case s.Instances < 1:
		return invalidf("SCANNER_INSTANCES must be at least 1, got %d", s.Instances)
	case s.Lights < 2:
		return invalidf("SCANNER_LIGHTS must be at least 2, got %d", s.Lights)
	case s.Scale <= 0:
		return invalidf("SCANNER_SCALE must be positive, got %v", s.Scale)
	case s.StopAfter < 0 || s.RestartAfter < 0:
		return invalidf("stop and restart delays must not be negative")
	}
	return nil
}
