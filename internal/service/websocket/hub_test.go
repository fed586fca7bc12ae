package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"objectmonitor/internal/config"
	"objectmonitor/internal/logger"
	"objectmonitor/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func startHub(t *testing.T) (*HubService, *metrics.Metrics, string) {
	t.Helper()
	log := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { log.Close() })

	m := metrics.New()
	hub := NewHubService(log, m.StatsViewers)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	t.Cleanup(server.Close)

	return hub, m, "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesAllViewers(t *testing.T) {
	hub, m, url := startHub(t)

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("Dial failed: %v", err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}
	waitForClients(t, hub, 3)

	if !hub.Broadcast([]byte(`{"total":1}`)) {
		t.Fatal("Broadcast was dropped")
	}

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Client %d read failed: %v", i, err)
		}
		if string(msg) != `{"total":1}` {
			t.Errorf("Client %d got %s", i, msg)
		}
	}

	if got := testutil.ToFloat64(m.StatsViewers); got != 3 {
		t.Errorf("viewers gauge = %v, expected 3", got)
	}
}

func TestHub_UnregisterClosesConnection(t *testing.T) {
	hub, _, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.mutex.RLock()
	var server *websocket.Conn
	for c := range hub.clients {
		server = c
	}
	hub.mutex.RUnlock()

	hub.Unregister(server)
	waitForClients(t, hub, 0)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected read error after server closed the connection")
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	log := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	defer log.Close()
	hub := NewHubService(log, nil)

	// Hub not running: the queue fills and further messages are dropped.
	for i := 0; i < broadcastBuffer; i++ {
		if !hub.Broadcast([]byte("x")) {
			t.Fatalf("Message %d dropped before the queue was full", i)
		}
	}
	if hub.Broadcast([]byte("x")) {
		t.Error("Expected drop when the queue is full")
	}
}
