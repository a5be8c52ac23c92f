package mqtt

import "time"

const (
	DefaultHost     = "103.78.25.230"
	DefaultPort     = "1883"
	DefaultUsername = "DVES_USER"
	DefaultTopic    = "cmnd/tasmota_C95BC9/POWER"
	DefaultTimeout  = 10 * time.Second
)

type Config struct {
	Host     string        `yaml:"host" envconfig:"MQTT_HOST"`
	Port     string        `yaml:"port" envconfig:"MQTT_PORT"`
	Username string        `yaml:"username" envconfig:"MQTT_USERNAME"`
	Password string        `yaml:"password" envconfig:"MQTT_PASSWORD"`
	ClientID string        `yaml:"client_id" envconfig:"MQTT_CLIENT_ID"`
	Topic    string        `yaml:"topic" envconfig:"TASMOTA_TOPIC"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"MQTT_TIMEOUT"`
}

func (c Config) Broker() string {
	return c.Host + ":" + c.Port
}
