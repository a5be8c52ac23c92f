package cli

import (
	"alarm/config"
	"alarm/integration/tasmota"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// run executes the command line with a config path that does not exist
func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	args = append([]string{"--config", filepath.Join(t.TempDir(), "config.yml")}, args...)
	code := Run(context.Background(), args, &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func fakeDevice(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, &hits
}

func TestRun_ArgumentCount(t *testing.T) {
	for _, args := range [][]string{{}, {"on", "http://a", "http://b"}} {
		code, stdout, _ := run(t, args...)
		if code != 1 {
			t.Errorf("%v: exit code: got %d, want 1", args, code)
		}
		if !strings.HasPrefix(stdout, "usage: alarm [on|off] [device_url]") {
			t.Errorf("%v: usage not printed:\n%s", args, stdout)
		}
		if !strings.Contains(stdout, "default device: "+tasmota.DefaultURL) {
			t.Errorf("%v: default device missing:\n%s", args, stdout)
		}
	}
}

func TestRun_InvalidAction(t *testing.T) {
	server, hits := fakeDevice(t, http.StatusOK, `{"POWER":"ON"}`)

	for _, action := range []string{"toggle", "1", "onn", "help", "completion"} {
		code, stdout, stderr := run(t, action, server.URL)
		if code != 1 {
			t.Errorf("%s: exit code: got %d, want 1", action, code)
		}

		want := "error: action must be 'on' or 'off', got '" + action + "'\n"
		if stdout != want {
			t.Errorf("%s: stdout: got %q, want %q", action, stdout, want)
		}
		if stderr != "" {
			t.Errorf("%s: unexpected stderr: %q", action, stderr)
		}
	}

	if hits.Load() != 0 {
		t.Errorf("device was called %d times for invalid actions", hits.Load())
	}
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		action string
		status int
		body   string
		code   int
		want   string
	}{
		{"success", "on", http.StatusOK, `{"POWER":"ON"}`, 0, "✅ success: alarm turned ON"},
		{"upper case action", "OFF", http.StatusOK, `{"POWER":"OFF"}`, 0, "✅ success: alarm turned OFF"},
		{"mismatch", "on", http.StatusOK, `{"POWER":"OFF"}`, 0, "⚠️  unexpected state: expected ON, got OFF"},
		{"plain text", "on", http.StatusOK, "ok", 0, "✅ request sent successfully"},
		// A device error status is reported without failing the process
		{"server error", "on", http.StatusInternalServerError, "boom", 0, "❌ failed: HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, hits := fakeDevice(t, tt.status, tt.body)

			code, stdout, _ := run(t, tt.action, server.URL)
			if code != tt.code {
				t.Errorf("exit code: got %d, want %d", code, tt.code)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Errorf("stdout missing %q:\n%s", tt.want, stdout)
			}
			if hits.Load() != 1 {
				t.Errorf("device hits: got %d, want 1", hits.Load())
			}
		})
	}
}

func TestRun_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	code, stdout, stderr := run(t, "off", url)
	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if !strings.Contains(stdout, "❌ connection error: device not reachable at "+url) {
		t.Errorf("stdout:\n%s", stdout)
	}
	if stderr != "" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, stderr := run(t, "--bogus", "on")
	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if !strings.HasPrefix(stderr, "Error: ") {
		t.Errorf("stderr: got %q", stderr)
	}
}

func TestRun_Help(t *testing.T) {
	for _, flag := range []string{"-h", "--help"} {
		code, stdout, stderr := run(t, flag)
		if code != 1 {
			t.Errorf("%s: exit code: got %d, want 1", flag, code)
		}
		if !strings.HasPrefix(stdout, "usage: alarm [on|off] [device_url]") {
			t.Errorf("%s: usage not printed:\n%s", flag, stdout)
		}
		if stderr != "" {
			t.Errorf("%s: unexpected stderr: %q", flag, stderr)
		}
	}
}

func TestCommandSwitch_IgnoresConfiguredURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("tasmota:\n  url: http://10.8.8.8\n  timeout: 1s\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASMOTA_URL", "http://10.9.9.9")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Tasmota.URL != "http://10.9.9.9" {
		t.Fatalf("configured url: got %s", cfg.Tasmota.URL)
	}

	if got := commandSwitch(cfg, false, []string{"on"}).Target(); got != tasmota.DefaultURL {
		t.Errorf("target: got %s, want %s", got, tasmota.DefaultURL)
	}
	if got := commandSwitch(cfg, false, []string{"on", "http://192.168.1.100:8080"}).Target(); got != "http://192.168.1.100:8080" {
		t.Errorf("explicit target: got %s", got)
	}

	// Serve mode still follows the config
	if got := newSwitch(cfg, false, "").Target(); got != "http://10.9.9.9" {
		t.Errorf("serve target: got %s", got)
	}
}

func TestNewSwitch(t *testing.T) {
	cfg := config.Default()

	if got := newSwitch(cfg, false, "").Target(); got != tasmota.DefaultURL {
		t.Errorf("default target: got %s, want %s", got, tasmota.DefaultURL)
	}

	// Used verbatim, including the trailing slash
	if got := newSwitch(cfg, false, "http://192.168.1.100:8080/").Target(); got != "http://192.168.1.100:8080/" {
		t.Errorf("explicit target: got %s", got)
	}

	cfg.Tasmota.URL = "http://10.0.0.9"
	if got := newSwitch(cfg, false, "").Target(); got != "http://10.0.0.9" {
		t.Errorf("configured target: got %s", got)
	}

	sw := newSwitch(config.Default(), true, "cmnd/sonoff/POWER")
	if got := sw.Describe("on"); got != "publishing ON to cmnd/sonoff/POWER" {
		t.Errorf("mqtt describe: got %s", got)
	}
	if got := sw.Target(); got != "103.78.25.230:1883" {
		t.Errorf("mqtt target: got %s", got)
	}
}
