package device

import "fmt"

type Reply interface {
	isReply()
}

// Structured is an HTTP 200 whose body is a JSON object
type Structured struct {
	StatusCode int
	Body       string
	Fields     map[string]any
}

func (Structured) isReply() {}

// Power returns the reported relay state, or "" when the device did not
// include one. Non-string values are formatted as-is.
func (s Structured) Power() string {
	v, ok := s.Fields["POWER"]
	if !ok || v == nil {
		return ""
	}

	if str, ok := v.(string); ok {
		return str
	}

	return fmt.Sprint(v)
}

// Opaque is an HTTP 200 whose body could not be read as a JSON object
type Opaque struct {
	StatusCode int
	Body       string
}

func (Opaque) isReply() {}

// Rejected is any non 200 response
type Rejected struct {
	StatusCode int
	Body       string
}

func (Rejected) isReply() {}

// Published is a command accepted by the MQTT broker
type Published struct {
	Topic   string
	Payload string
}

func (Published) isReply() {}
