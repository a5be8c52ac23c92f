package server

import (
	"alarm/device"
	"alarm/monitor"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	"github.com/r3labs/sse/v2"
)

const stream = "alarm"

type Notifier interface {
	Alarm(ctx context.Context, action device.Action) error
}

type Server struct {
	addr   string
	sw     device.Switch
	notify Notifier
	fleet  *monitor.Monitor

	state  *ttlcache.Cache[string, string]
	events *sse.Server
	router *mux.Router
}

func New(config Config, sw device.Switch, notify Notifier) *Server {
	if config.StateTTL <= 0 {
		config.StateTTL = DefaultStateTTL
	}

	s := &Server{
		addr:   config.Addr,
		sw:     sw,
		notify: notify,
		state: ttlcache.New(
			ttlcache.WithTTL[string, string](config.StateTTL),
			// Reading the state must not keep it alive
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
		events: sse.New(),
		router: mux.NewRouter(),
	}

	go s.state.Start()
	s.events.CreateStream(stream)

	s.router.HandleFunc("/api/alarm", s.switchHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/alarm", s.stateHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/alarm/events", s.eventsHandler).Methods(http.MethodGet)

	return s
}

// WithMonitor exposes the status of the adb controller hosts
func (s *Server) WithMonitor(m *monitor.Monitor) *Server {
	s.fleet = m

	s.router.HandleFunc("/api/device-status", s.deviceStatusHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices", s.devicesHandler).Methods(http.MethodGet)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks until ctx is done and the server has shut down
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := http.Server{
		Addr:    s.addr,
		Handler: s,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	log.Printf("Starting server on %s (PID: %d)\n", s.addr, os.Getpid())

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server")

	// Event streams never finish on their own
	s.events.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Close must be called exactly once
func (s *Server) Close() {
	s.state.Stop()
	s.events.Close()
}

type switchRequest struct {
	Action string `json:"action"`
}

type switchResponse struct {
	Success bool          `json:"success"`
	Action  device.Action `json:"action"`
	Command string        `json:"command"`
	Target  string        `json:"target"`
	Power   string        `json:"power,omitempty"`
	Topic   string        `json:"topic,omitempty"`
}

type devicesResponse struct {
	Devices   []monitor.HostState `json:"devices"`
	Timestamp int64               `json:"timestamp"`
}

type stateResponse struct {
	Target string `json:"target"`
	Power  string `json:"power,omitempty"`
	Known  bool   `json:"known"`
}

type event struct {
	Action  device.Action `json:"action"`
	Command string        `json:"command"`
	Power   string        `json:"power"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) switchHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// Unlike the command line the API does not accept other casings
	action := device.Action(req.Action)
	if action != device.ActionOn && action != device.ActionOff {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: `invalid action, must be "on" or "off"`})
		return
	}

	reply, err := s.sw.SetPower(r.Context(), action)
	if err != nil {
		log.Printf("Failed to switch alarm %s: %s\n", action, err)

		// A broker handshake that timed out is unreachable but still a timeout here
		if device.TimedOut(err) {
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "connection timeout"})
		} else {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return
	}

	resp := switchResponse{
		Success: true,
		Action:  action,
		Command: action.Command(),
		Target:  s.sw.Target(),
	}

	switch reply := reply.(type) {
	case device.Rejected:
		log.Printf("Device rejected %s: HTTP %d %s\n", action, reply.StatusCode, reply.Body)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: fmt.Sprintf("device returned HTTP %d", reply.StatusCode)})
		return
	case device.Structured:
		resp.Power = reply.Power()
	case device.Published:
		resp.Topic = reply.Topic
	}

	// Without a reported state assume the command took effect
	power := resp.Power
	if power == "" {
		power = resp.Command
	}
	s.state.Set(resp.Target, power, ttlcache.DefaultTTL)

	data, err := json.Marshal(event{Action: action, Command: resp.Command, Power: power})
	if err == nil {
		s.events.Publish(stream, &sse.Event{Data: data})
	} else {
		log.Println(err)
	}

	if s.notify != nil {
		if err := s.notify.Alarm(r.Context(), action); err != nil {
			log.Printf("Failed to send notification: %s\n", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{Target: s.sw.Target()}

	if item := s.state.Get(resp.Target); item != nil {
		resp.Power = item.Value()
		resp.Known = true
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	// The sse server picks the stream from the query
	q := r.URL.Query()
	q.Set("stream", stream)
	r.URL.RawQuery = q.Encode()

	s.events.ServeHTTP(w, r)
}

func (s *Server) deviceStatusHandler(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing ip parameter"})
		return
	}

	writeJSON(w, http.StatusOK, s.fleet.Fetch(r.Context(), ip))
}

func (s *Server) devicesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, devicesResponse{
		Devices:   s.fleet.FetchAll(r.Context()),
		Timestamp: time.Now().UnixMilli(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println(err)
	}
}
