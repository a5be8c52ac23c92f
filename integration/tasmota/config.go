package tasmota

import "time"

const (
	DefaultURL     = "http://103.78.25.230:8080"
	DefaultTimeout = 10 * time.Second
)

type Config struct {
	URL     string        `yaml:"url" envconfig:"TASMOTA_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TASMOTA_TIMEOUT"`
}
