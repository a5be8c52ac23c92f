package cli

import (
	"alarm/config"
	"alarm/device"
	"alarm/integration/mqtt"
	"alarm/integration/tasmota"
	"alarm/runner"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const usage = `usage: alarm [on|off] [device_url]

examples:
  alarm on                            # use default device
  alarm off                           # use default device
  alarm on http://192.168.1.100:8080  # custom device
  alarm --mqtt on                     # publish through the MQTT broker

default device: %s
`

type options struct {
	configPath string
	mqtt       bool
	debug      bool

	// Set when -h or --help printed the usage instead of running a command
	helped bool
}

// Run executes the command line and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	cmd := newRootCmd(stdout, opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		// Asking for help is answered like a wrong argument count
		if opts.helped {
			return 1
		}
		return 0
	}

	// Errors with a kind have already been reported on stdout
	var e *device.Error
	if !errors.As(err, &e) {
		fmt.Fprintf(stderr, "Error: %s\n", err)
	}

	return 1
}

func newRootCmd(stdout io.Writer, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "alarm <on|off> [device_url]",
		Short:         "Switch the alarm relay of a Tasmota smart plug",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				fmt.Fprintf(stdout, usage, tasmota.DefaultURL)
				return &device.Error{Kind: device.KindUsage, Err: fmt.Errorf("expected 1 or 2 arguments, got %d", len(args))}
			}

			// Validated before anything else so a bad action never reaches the device
			action, err := device.ParseAction(args[0])
			if err != nil {
				fmt.Fprintf(stdout, "error: %s\n", err)
				return err
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			return runner.New(stdout, commandSwitch(cfg, opts.mqtt, args)).WithDebug(opts.debug).Run(cmd.Context(), action)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yml", "Path to the config file")
	cmd.PersistentFlags().BoolVar(&opts.mqtt, "mqtt", false, "Switch through the MQTT broker instead of the HTTP API")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable verbose debug output")

	// "help" and "completion" are actions like any other word and must be rejected
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c != cmd {
			defaultHelp(c, args)
			return
		}
		opts.helped = true
		fmt.Fprintf(stdout, usage, tasmota.DefaultURL)
	})

	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

func loadConfig(opts *options) (config.Config, error) {
	_ = godotenv.Load()

	if opts.debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	return config.Load(opts.configPath)
}

// commandSwitch is the switch of a one shot command. Over HTTP it talks to the
// device url argument or the built in default, the configured url belongs to
// serve mode.
func commandSwitch(cfg config.Config, useMQTT bool, args []string) device.Switch {
	target := ""
	if len(args) == 2 {
		target = args[1]
	}

	if !useMQTT {
		cfg.Tasmota = tasmota.Config{URL: tasmota.DefaultURL, Timeout: tasmota.DefaultTimeout}
	}

	return newSwitch(cfg, useMQTT, target)
}

// newSwitch picks the transport. An explicit target replaces the configured
// url (or topic over MQTT) verbatim.
func newSwitch(cfg config.Config, useMQTT bool, target string) device.Switch {
	if useMQTT {
		c := cfg.MQTT
		if target != "" {
			c.Topic = target
		}
		return mqtt.NewOutlet(c)
	}

	url := cfg.Tasmota.URL
	if target != "" {
		url = target
	}
	if url == "" {
		url = tasmota.DefaultURL
	}

	return tasmota.NewOutlet(url, cfg.Tasmota.Timeout)
}
