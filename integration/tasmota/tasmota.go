package tasmota

import (
	"alarm/device"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Commands go through the web request API:
// https://tasmota.github.io/docs/Commands/#with-web-requests

// CommandURL appends the power command to base without touching base itself
func CommandURL(base string, command string) string {
	return fmt.Sprintf("%s/cm?cmnd=POWER%%20%s", base, command)
}

type Outlet struct {
	url    string
	client *http.Client
}

func NewOutlet(url string, timeout time.Duration) *Outlet {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Outlet{url: url, client: &http.Client{Timeout: timeout}}
}

// device.Switch
var _ device.Switch = (*Outlet)(nil)

func (o *Outlet) Target() string {
	return o.url
}

func (o *Outlet) Describe(action device.Action) string {
	return fmt.Sprintf("sending GET to %s", CommandURL(o.url, action.Command()))
}

func (o *Outlet) SetPower(ctx context.Context, action device.Action) (device.Reply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, CommandURL(o.url, action.Command()), nil)
	if err != nil {
		return nil, &device.Error{Kind: device.KindGeneric, Err: err}
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}

	return parseReply(resp.StatusCode, body), nil
}

func parseReply(status int, body []byte) device.Reply {
	if status != http.StatusOK {
		return device.Rejected{StatusCode: status, Body: string(body)}
	}

	// Anything that is not a JSON object (including null) is treated as plain text
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return device.Opaque{StatusCode: status, Body: string(body)}
	}

	return device.Structured{StatusCode: status, Body: string(body), Fields: fields}
}

// A timeout while dialing counts as unreachable, only a device that accepted
// the connection and then went quiet is a timeout
func classify(err error) error {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var netErr net.Error

	kind := device.KindGeneric
	switch {
	case errors.As(err, &opErr) && opErr.Op == "dial",
		errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		kind = device.KindUnreachable
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		kind = device.KindTimeout
	}

	return &device.Error{Kind: kind, Err: err}
}
