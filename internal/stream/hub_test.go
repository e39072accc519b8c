package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gaugefetch/gaugefetch/internal/metric"
)

var at = time.UnixMilli(1700000000000)

// dial connects a test WebSocket client to the hub, registering cleanup.
func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_SendsDocumentOnConnect(t *testing.T) {
	st := metric.NewStore()
	st.Replace("tgt", "up", []metric.Metric{metric.New("up", 1, at)})

	hub := New(st, time.Hour) // interval irrelevant, first frame is immediate
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(msg), "# TYPE up gauge") {
		t.Errorf("first frame: got %q, want exposition document", msg)
	}
}

func TestHub_BroadcastsOnInterval(t *testing.T) {
	st := metric.NewStore()
	hub := New(st, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// Discard the connect frame (store still empty), then mutate the store
	// and expect a later broadcast to carry the new series.
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read connect frame: %v", err)
	}
	st.Replace("tgt", "lat", []metric.Metric{metric.New("lat", 42, at)})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read broadcast: %v", err)
		}
		if strings.Contains(string(msg), "lat 42") {
			return
		}
	}
	t.Fatal("no broadcast carried the new series within 2s")
}

func TestHub_CountTracksClients(t *testing.T) {
	hub := New(metric.NewStore(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	if hub.Count() != 0 {
		t.Fatalf("Count before connect: got %d, want 0", hub.Count())
	}

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.Count() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
}

// waitFor polls cond for up to 2 seconds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}
