package server

import "time"

const (
	DefaultAddr     = ":8090"
	DefaultStateTTL = 5 * time.Minute
)

type Config struct {
	Addr     string        `yaml:"addr" envconfig:"ALARM_ADDR"`
	StateTTL time.Duration `yaml:"state_ttl" envconfig:"ALARM_STATE_TTL"`
}
