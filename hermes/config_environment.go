package hermes

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lunagic/environment-go/environment"
)

// NewConfigFromEnvironment starts from NewDefaultConfig, loads the given dotenv
// files into the process environment (missing files are skipped) and decodes
// every env tag from the environment, ".env.local" and ".env".
func NewConfigFromEnvironment(files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", file, err)
		}
	}

	config := NewDefaultConfig()
	if err := decodeEnvironment(&config, environment.New()); err != nil {
		return Config{}, err
	}

	return config, nil
}

// durationSettings holds the duration variables as text, the decoder only
// knows string, int and bool fields.
type durationSettings struct {
	SweepMaxAge   string `env:"SWEEP_MAX_AGE"`
	SweepInterval string `env:"SWEEP_INTERVAL"`
}

func decodeEnvironment(config *Config, env *environment.Service) error {
	if err := env.Decode(config); err != nil {
		return fmt.Errorf("decoding environment: %w", err)
	}

	durations := durationSettings{}
	if err := env.Decode(&durations); err != nil {
		return fmt.Errorf("decoding environment: %w", err)
	}

	for name, setting := range map[string]struct {
		raw    string
		target *time.Duration
	}{
		"SWEEP_MAX_AGE":  {raw: durations.SweepMaxAge, target: &config.SweepMaxAge},
		"SWEEP_INTERVAL": {raw: durations.SweepInterval, target: &config.SweepInterval},
	} {
		if setting.raw == "" {
			continue
		}

		duration, err := time.ParseDuration(strings.TrimSpace(setting.raw))
		if err != nil {
			return fmt.Errorf("environment variable %s: %w", name, err)
		}

		*setting.target = duration
	}

	return nil
}

// NewTestConfig is a default config with a random key, a random port and local
// storage in a temporary directory.
func NewTestConfig(t testing.TB) Config {
	t.Helper()

	config := NewDefaultConfig()
	config.AppHTTPHost = "127.0.0.1"
	config.AppHTTPPort = 0
	config.AppKey = strings.ReplaceAll(uuid.NewString(), "-", "")
	config.LocalStorageDirectory = t.TempDir()

	return config
}
