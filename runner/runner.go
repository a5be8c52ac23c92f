package runner

import (
	"alarm/device"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kr/pretty"
)

type Runner struct {
	out   io.Writer
	sw    device.Switch
	debug bool
}

func New(out io.Writer, sw device.Switch) *Runner {
	return &Runner{out: out, sw: sw}
}

// WithDebug dumps every reply to the standard logger
func (r *Runner) WithDebug(debug bool) *Runner {
	r.debug = debug
	return r
}

// Run sends one power command and prints the outcome. Only transport failures
// are returned as errors, a device that answers with an unexpected state or a
// bad status is reported but still counts as a sent command.
func (r *Runner) Run(ctx context.Context, action device.Action) error {
	command := action.Command()

	r.println("testing alarm:", strings.ToUpper(action.String()))
	r.println(r.sw.Describe(action))

	reply, err := r.sw.SetPower(ctx, action)
	if err != nil {
		r.reportError(err)
		return err
	}

	if r.debug {
		pretty.Logln("reply:", reply)
	}

	switch reply := reply.(type) {
	case device.Structured:
		r.printf("status code: %d\n", reply.StatusCode)
		r.printf("response: %s\n", reply.Body)

		if power := reply.Power(); power == command {
			r.printf("✅ success: alarm turned %s\n", command)
		} else {
			r.printf("⚠️  unexpected state: expected %s, got %s\n", command, power)
		}
	case device.Opaque:
		r.printf("status code: %d\n", reply.StatusCode)
		r.printf("response text: %s\n", reply.Body)
		r.println("✅ request sent successfully")
	case device.Rejected:
		r.printf("status code: %d\n", reply.StatusCode)
		r.printf("❌ failed: HTTP %d\n", reply.StatusCode)
		r.printf("response: %s\n", reply.Body)
	case device.Published:
		r.printf("✅ command published to %s\n", reply.Topic)
	default:
		r.printf("⚠️  unknown reply: %v\n", reply)
	}

	return nil
}

func (r *Runner) reportError(err error) {
	switch device.KindOf(err) {
	case device.KindUnreachable:
		r.printf("❌ connection error: device not reachable at %s\n", r.sw.Target())
	case device.KindTimeout:
		r.println("❌ timeout: request took too long")
	default:
		r.printf("❌ error: %s\n", err)
	}
}

func (r *Runner) printf(format string, a ...any) {
	fmt.Fprintf(r.out, format, a...)
}

func (r *Runner) println(a ...any) {
	fmt.Fprintln(r.out, a...)
}
