/*
DESCRIPTION
  server.go implements the remote-control request/reply transport named
  in spec.md §4.J: `info`, `config` and `values` over a small HTTP
  surface, a Prometheus /metrics endpoint (CreateMetricsServer in the
  USA-RedDragon-DMRHub example), and a websocket push channel that
  streams `values` snapshots to subscribers on every Server.Broadcast
  call (ws.go in the same example, trimmed to a single broadcast-only
  handler since dabmux has no per-client session state to key on).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ausocean/dabmux/internal/xlog"
)

const wsWriteTimeout = 3 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server exposes the §4.J remote-control surface over HTTP: GET /info,
// GET /config, POST /config (applies InputControl/MuxControl updates),
// GET /values, GET /metrics (Prometheus) and GET /ws (a live push of
// Values snapshots).
type Server struct {
	log  xlog.Logger
	reg  *Registry
	prom *PromExporter

	httpSrv *http.Server

	subsMu sync.Mutex
	subs   map[*websocket.Conn]struct{}
}

// NewServer returns a Server bound to addr, wiring reg's read surface
// and, if registerer is non-nil, a Prometheus exporter on /metrics.
func NewServer(log xlog.Logger, reg *Registry, addr string, registerer prometheus.Registerer) *Server {
	s := &Server{log: log, reg: reg, subs: make(map[*websocket.Conn]struct{})}
	metricsHandler := promhttp.Handler()
	if registerer != nil {
		s.prom = NewPromExporter(reg, registerer)
		if gatherer, ok := registerer.(prometheus.Gatherer); ok {
			metricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/values", s.handleValues)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", metricsHandler)

	s.httpSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 3 * time.Second}
	return s
}

// Serve runs the HTTP listener until ctx is cancelled or Close is
// called. It returns http.ErrServerClosed on a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s.httpSrv.ListenAndServe()
}

// Close shuts down the HTTP listener and every open websocket
// subscriber.
func (s *Server) Close() error {
	s.subsMu.Lock()
	for c := range s.subs {
		c.Close()
	}
	s.subs = make(map[*websocket.Conn]struct{})
	s.subsMu.Unlock()
	return s.httpSrv.Close()
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.reg.Info())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var update struct {
			UID        string        `json:"uid"`
			Input      *InputControl `json:"input"`
			TISTOffset *int          `json:"tist_offset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if update.Input != nil {
			if !s.reg.SetInputControl(update.UID, *update.Input) {
				http.Error(w, "unknown uid: "+update.UID, http.StatusNotFound)
				return
			}
		}
		if update.TISTOffset != nil {
			s.reg.SetTISTOffset(*update.TISTOffset)
		}
	}
	writeJSON(w, s.reg.Config())
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.reg.Values(timeNow()))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warning("stats: websocket upgrade failed", "error", err)
		return
	}
	s.subsMu.Lock()
	s.subs[conn] = struct{}{}
	s.subsMu.Unlock()

	// Drain and discard client reads so the connection's read deadline
	// machinery notices a dropped peer; dabmux's values channel is
	// push-only.
	go func() {
		defer s.removeSub(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) removeSub(conn *websocket.Conn) {
	s.subsMu.Lock()
	delete(s.subs, conn)
	s.subsMu.Unlock()
	conn.Close()
}

// Broadcast pushes the current Values snapshot to every connected
// websocket subscriber, and, if a Prometheus exporter is configured,
// refreshes its gauges from the same snapshot. cmd/dabmux calls this
// from its liveness callback, every 250 frames.
func (s *Server) Broadcast(now time.Time) {
	if s.prom != nil {
		s.prom.Collect(now)
	}

	values := s.reg.Values(now)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return
	}
	for conn := range s.subs {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(s.subs, conn)
			conn.Close()
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// timeNow is overridden in tests to avoid depending on the wall clock.
var timeNow = time.Now
