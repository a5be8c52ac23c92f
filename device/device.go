package device

import (
	"context"
	"fmt"
	"strings"
)

type Action string

const (
	ActionOn  Action = "on"
	ActionOff Action = "off"
)

// ParseAction lowercases s and checks it against the known actions
func ParseAction(s string) (Action, error) {
	action := Action(strings.ToLower(s))

	switch action {
	case ActionOn, ActionOff:
		return action, nil
	}

	return action, &Error{Kind: KindUsage, Err: fmt.Errorf("action must be 'on' or 'off', got '%s'", action)}
}

// Command returns the token Tasmota expects for the action
func (a Action) Command() string {
	if a == ActionOn {
		return "ON"
	}

	return "OFF"
}

func (a Action) String() string {
	return string(a)
}

// Switch is anything that can drive the alarm relay
type Switch interface {
	// Target is where the switch sends commands, used in error messages
	Target() string
	// Describe returns the progress line printed before the command is sent
	Describe(action Action) string
	SetPower(ctx context.Context, action Action) (Reply, error)
}
