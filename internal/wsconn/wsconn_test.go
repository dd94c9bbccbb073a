package wsconn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func newServer(t *testing.T, handler func(conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		if handler != nil {
			handler(conn)
		}
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(context.Background()); err != nil {
			return
		}
	}
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url, "test")
	cfg.PingInterval = 0
	return cfg
}

func TestNew_RejectsNonWebSocketURL(t *testing.T) {
	if _, err := New(DefaultConfig("http://example.com", "test")); err == nil {
		t.Fatal("expected error for http scheme")
	}
}

func TestClient_ConnectSuccess(t *testing.T) {
	srv, url := newServer(t, drain)
	defer srv.Close()

	client, err := New(testConfig(url))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !client.IsConnected() {
		t.Errorf("state = %v, want connected", client.State())
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	client, err := New(testConfig("ws://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err == nil {
		t.Fatal("expected Connect to fail")
	}
	if client.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", client.State())
	}
}

func TestClient_DeliversFrames(t *testing.T) {
	srv, url := newServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if err := conn.Write(ctx, typ, data); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	client, _ := New(testConfig(url))
	defer client.Close()

	got := make(chan string, 1)
	client.OnMessage(func(_ context.Context, msg []byte) {
		got <- string(msg)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.SendJSON(ctx, map[string]string{"method": "LIST_SUBSCRIPTIONS"}); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}

	select {
	case msg := <-got:
		if msg != `{"method":"LIST_SUBSCRIPTIONS"}` {
			t.Errorf("echo = %s", msg)
		}
	case <-ctx.Done():
		t.Fatal("no frame delivered")
	}
}

func TestClient_StateTransitions(t *testing.T) {
	srv, url := newServer(t, drain)
	defer srv.Close()

	client, _ := New(testConfig(url))

	var mu sync.Mutex
	var states []State
	client.OnStateChange(func(s State, _ error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateClosed}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
	if client.State() != StateClosed {
		t.Errorf("final state = %v", client.State())
	}
	if err := client.Connect(ctx); err == nil {
		t.Error("Connect after Close must fail")
	}
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	var mu sync.Mutex
	accepted := 0
	srv, url := newServer(t, func(conn *websocket.Conn) {
		mu.Lock()
		accepted++
		first := accepted == 1
		mu.Unlock()
		if first {
			return
		}
		drain(conn)
	})
	defer srv.Close()

	cfg := testConfig(url)
	cfg.InitialBackoff = 10 * time.Millisecond
	client, _ := New(cfg)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := accepted
		mu.Unlock()
		if n >= 2 && client.IsConnected() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client did not reconnect, state = %v", client.State())
}

func TestClient_OversizedFrameDropsConnection(t *testing.T) {
	srv, url := newServer(t, func(conn *websocket.Conn) {
		big := make([]byte, 4096)
		for i := range big {
			big[i] = 'A'
		}
		_ = conn.Write(context.Background(), websocket.MessageText, big)
		time.Sleep(200 * time.Millisecond)
	})
	defer srv.Close()

	cfg := testConfig(url)
	cfg.MaxMessageSize = 100
	cfg.InitialBackoff = time.Minute
	client, _ := New(cfg)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if client.State() != StateReconnecting {
		t.Errorf("state = %v, want reconnecting", client.State())
	}
}
