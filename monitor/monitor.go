package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusOK    Status = "OK"
	StatusWarn  Status = "WARN"
	StatusError Status = "ERROR"
)

// Hosts missing at least this many of their devices are reported as WARN
const warnOffline = 5

type Result struct {
	Status      Status `json:"status"`
	TotalOnline int    `json:"totalOnline"`
	LastChecked int64  `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

type HostState struct {
	IP        string `json:"ip"`
	ProjectID string `json:"projectId"`
	Result
}

// Reply of the adb controller running on every host
type statusReply struct {
	Data []struct {
		TotalOnline int `json:"total_online"`
	} `json:"data"`
}

type Monitor struct {
	config Config
	client *http.Client
	now    func() time.Time
}

func New(config Config) *Monitor {
	if config.Port == "" {
		config.Port = DefaultPort
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Monitor{config: config, client: &http.Client{Timeout: config.Timeout}, now: time.Now}
}

func classify(online int, expected int) Status {
	switch {
	case online == 0:
		return StatusError
	case expected-online >= warnOffline:
		return StatusWarn
	default:
		return StatusOK
	}
}

// Fetch never fails, problems are reported as an ERROR result
func (m *Monitor) Fetch(ctx context.Context, ip string) (result Result) {
	result.Status = StatusError
	defer func() {
		result.LastChecked = m.now().UnixMilli()
	}()

	url := fmt.Sprintf("http://%s:%s/api/v1/adb-controller/status-all-devices", ip, m.config.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := m.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result
	}

	var reply statusReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		result.Error = err.Error()
		return result
	}

	// The last entry carries the running total
	if n := len(reply.Data); n > 0 {
		result.TotalOnline = reply.Data[n-1].TotalOnline
	}
	result.Status = classify(result.TotalOnline, m.config.DeviceCounts[ip])

	return result
}

// FetchAll checks every configured host in parallel. The states are ordered
// by project id and then by the order of the hosts in the config.
func (m *Monitor) FetchAll(ctx context.Context) []HostState {
	ids := make([]string, 0, len(m.config.Projects))
	for id := range m.config.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	states := []HostState{}
	for _, id := range ids {
		for _, ip := range m.config.Projects[id].Hosts {
			states = append(states, HostState{IP: ip, ProjectID: id})
		}
	}

	var wg sync.WaitGroup
	for i := range states {
		wg.Add(1)
		go func(state *HostState) {
			defer wg.Done()
			state.Result = m.Fetch(ctx, state.IP)
		}(&states[i])
	}
	wg.Wait()

	return states
}
