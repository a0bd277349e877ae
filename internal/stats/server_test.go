/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stats

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ausocean/dabmux/internal/xlog"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	reg := New()
	reg.Register("input-a")
	reg.RecordFill("input-a", time.Now(), 7)

	s := NewServer(xlog.NewTestLogger(t), reg, "127.0.0.1:0", prometheus.NewRegistry())
	hs := httptest.NewServer(s.httpSrv.Handler)
	t.Cleanup(hs.Close)
	return s, hs
}

func TestServerInfoAndValues(t *testing.T) {
	_, hs := newTestServer(t)

	resp, err := http.Get(hs.URL + "/info")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var uids []string
	if err := json.NewDecoder(resp.Body).Decode(&uids); err != nil {
		t.Fatal(err)
	}
	if len(uids) != 1 || uids[0] != "input-a" {
		t.Fatalf("/info = %v, want [input-a]", uids)
	}

	resp, err = http.Get(hs.URL + "/values")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var values []InputValues
	if err := json.NewDecoder(resp.Body).Decode(&values); err != nil {
		t.Fatal(err)
	}
	if len(values) != 1 || values[0].MaxFill != 7 {
		t.Fatalf("/values = %+v, want one entry with MaxFill 7", values)
	}
}

func TestServerConfigPostUpdatesTISTOffset(t *testing.T) {
	s, hs := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{"tist_offset": 9})
	resp, err := http.Post(hs.URL+"/config", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /config status = %d", resp.StatusCode)
	}
	if got := s.reg.TISTOffset(); got != 9 {
		t.Fatalf("TISTOffset after POST /config = %d, want 9", got)
	}
}

func TestServerConfigPostUnknownUIDFails(t *testing.T) {
	_, hs := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"uid":   "ghost",
		"input": InputControl{Enabled: true},
	})
	resp, err := http.Post(hs.URL+"/config", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("POST /config for unknown uid status = %d, want 404", resp.StatusCode)
	}
}

func TestServerMetricsEndpointServesPrometheusText(t *testing.T) {
	_, hs := newTestServer(t)

	resp, err := http.Get(hs.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics status = %d", resp.StatusCode)
	}
}

func TestServerWebsocketBroadcastsValues(t *testing.T) {
	s, hs := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Give handleWS a moment to register the subscriber before broadcasting.
	time.Sleep(50 * time.Millisecond)
	s.Broadcast(time.Now())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected a pushed values snapshot: %v", err)
	}
	var values []InputValues
	if err := json.Unmarshal(msg, &values); err != nil {
		t.Fatalf("pushed payload not valid JSON: %v", err)
	}
	if len(values) != 1 || values[0].UID != "input-a" {
		t.Fatalf("pushed values = %+v", values)
	}
}
