package config

import (
	"alarm/integration/mqtt"
	"alarm/integration/ntfy"
	"alarm/integration/tasmota"
	"alarm/monitor"
	"alarm/server"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Tasmota tasmota.Config `yaml:"tasmota"`
	MQTT    mqtt.Config    `yaml:"mqtt"`
	NTFY    ntfy.Config    `yaml:"ntfy"`
	Server  server.Config  `yaml:"server"`
	Monitor monitor.Config `yaml:"monitor"`
}

func Default() Config {
	return Config{
		Tasmota: tasmota.Config{
			URL:     tasmota.DefaultURL,
			Timeout: tasmota.DefaultTimeout,
		},
		MQTT: mqtt.Config{
			Host:     mqtt.DefaultHost,
			Port:     mqtt.DefaultPort,
			Username: mqtt.DefaultUsername,
			Topic:    mqtt.DefaultTopic,
			Timeout:  mqtt.DefaultTimeout,
		},
		NTFY: ntfy.Config{
			Server: ntfy.DefaultServer,
		},
		Server: server.Config{
			Addr:     server.DefaultAddr,
			StateTTL: server.DefaultStateTTL,
		},
		Monitor: monitor.Config{
			Port:    monitor.DefaultPort,
			Timeout: monitor.DefaultTimeout,
		},
	}
}

// Load starts from the defaults, applies the yaml file at path if there is one
// and then the environment
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults and environment only
	case err != nil:
		return cfg, fmt.Errorf("opening config file: %w", err)
	default:
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// This can be used to either override the config or pass in secrets
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
