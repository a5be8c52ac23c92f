package ntfy

import (
	"alarm/device"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultServer = "https://ntfy.sh"

type Config struct {
	Server string `yaml:"server" envconfig:"NTFY_SERVER"`
	Topic  string `yaml:"topic" envconfig:"NTFY_TOPIC"`
}

type Notify struct {
	server string
	topic  string
	client *http.Client
}

// New returns nil when no topic is configured, a nil Notify sends nothing
func New(config Config) *Notify {
	if config.Topic == "" {
		return nil
	}

	server := config.Server
	if server == "" {
		server = DefaultServer
	}

	return &Notify{server: strings.TrimSuffix(server, "/"), topic: config.Topic, client: &http.Client{Timeout: 10 * time.Second}}
}

func (n *Notify) Alarm(ctx context.Context, action device.Action) error {
	if n == nil {
		return nil
	}

	description := fmt.Sprintf("Alarm %s", action.Command())
	priority := "3"
	if action == device.ActionOn {
		priority = "5"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", n.server, n.topic), strings.NewReader(description))
	if err != nil {
		return err
	}

	req.Header.Set("Title", "Alarm")
	req.Header.Set("Tags", "rotating_light")
	req.Header.Set("Priority", priority)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned HTTP %d", resp.StatusCode)
	}

	return nil
}
