package monitor

import "time"

const (
	DefaultPort    = "8084"
	DefaultTimeout = 30 * time.Second
)

type Project struct {
	Name  string   `yaml:"name"`
	Hosts []string `yaml:"hosts"`
}

type Config struct {
	Port     string             `yaml:"port" envconfig:"MONITOR_PORT"`
	Timeout  time.Duration      `yaml:"timeout" envconfig:"MONITOR_TIMEOUT"`
	Projects map[string]Project `yaml:"projects"`
	// Number of devices expected behind each host, keyed by ip
	DeviceCounts map[string]int `yaml:"device_counts"`
}
