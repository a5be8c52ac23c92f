package mqtt

import (
	"alarm/device"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// This is the default message handler, it just logs the topic and message
var defaultHandler paho.MessageHandler = func(client paho.Client, msg paho.Message) {
	log.Printf("TOPIC: %s\n", msg.Topic())
	log.Printf("MSG: %s\n", msg.Payload())
}

func New(config Config) paho.Client {
	clientID := config.ClientID
	if clientID == "" {
		// A fixed id would make parallel runs kick each other off the broker
		clientID = "alarm-" + uuid.NewString()
	}

	opts := paho.NewClientOptions().AddBroker(config.Broker())
	opts.SetClientID(clientID)
	opts.SetDefaultPublishHandler(defaultHandler)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetOrderMatters(false)
	opts.SetConnectTimeout(config.Timeout)
	opts.SetAutoReconnect(false)

	return paho.NewClient(opts)
}

// The part of paho.Client an outlet needs
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Outlet switches a Tasmota relay by publishing to its command topic
type Outlet struct {
	config Config
	dial   func(Config) client
}

func NewOutlet(config Config) *Outlet {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Outlet{config: config, dial: func(c Config) client { return New(c) }}
}

// device.Switch
var _ device.Switch = (*Outlet)(nil)

func (o *Outlet) Target() string {
	return o.config.Broker()
}

func (o *Outlet) Describe(action device.Action) string {
	return fmt.Sprintf("publishing %s to %s", action.Command(), o.config.Topic)
}

func (o *Outlet) SetPower(ctx context.Context, action device.Action) (device.Reply, error) {
	client := o.dial(o.config)

	// Like a refused dial, a broker that never completes the handshake is unreachable
	if err := wait(ctx, client.Connect(), o.config.Timeout); err != nil {
		return nil, &device.Error{Kind: device.KindUnreachable, Err: fmt.Errorf("connecting to %s: %w", o.config.Broker(), err)}
	}
	defer client.Disconnect(250)

	payload := action.Command()
	if err := wait(ctx, client.Publish(o.config.Topic, 1, false, payload), o.config.Timeout); err != nil {
		kind := device.KindGeneric
		if errors.Is(err, device.ErrTimedOut) || errors.Is(err, context.DeadlineExceeded) {
			kind = device.KindTimeout
		}
		return nil, &device.Error{Kind: kind, Err: err}
	}

	return device.Published{Topic: o.config.Topic, Payload: payload}, nil
}

func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return device.ErrTimedOut
	case <-ctx.Done():
		return ctx.Err()
	}
}
