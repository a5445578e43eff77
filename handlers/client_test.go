package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/4cecoder/shipsync/protocol"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeServer speaks just enough engine.io to hand the client one event and
// collect what it sends back.
func fakeServer(t *testing.T, received chan<- string, clientIDs chan<- string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIDs <- r.Header.Get("X-Client-ID")
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"s1","upgrades":[],"pingInterval":25000,"pingTimeout":20000}`))
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(msg)
			if string(msg) == "40" {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"n1"}`))
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`2`))
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`42["left",{"player":{"name":"B"}}]`))
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientHandshakeAndEvents(t *testing.T) {
	received := make(chan string, 16)
	clientIDs := make(chan string, 4)
	srv := fakeServer(t, received, clientIDs)
	defer srv.Close()

	c := NewClient(ClientConfig{URL: wsURL(srv), ReconnectInterval: 10 * time.Millisecond}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	if id := <-clientIDs; id != c.ID || id == "" {
		t.Fatalf("expected X-Client-ID %q, got %q", c.ID, id)
	}

	var names []string
	for len(names) < 2 {
		select {
		case ev := <-c.Events():
			names = append(names, ev.Name)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for events, got %v", names)
		}
	}
	if names[0] != protocol.EventOpen || names[1] != protocol.EventLeft {
		t.Fatalf("unexpected events %v", names)
	}

	if err := c.Emit(protocol.EventSetName, protocol.SetNameMsg{Name: "A"}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	want := map[string]bool{"40": false, "3": false, `42["setname",{"name":"A"}]`: false}
	for missing := len(want); missing > 0; {
		select {
		case msg := <-received:
			if seen, ok := want[msg]; ok && !seen {
				want[msg] = true
				missing--
			}
		case <-ctx.Done():
			t.Fatalf("server did not receive %v", want)
		}
	}

	cancel()
	if err := <-runErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("run: %v", err)
	}
}

func TestClientQueuesWhileDisconnected(t *testing.T) {
	c := NewClient(ClientConfig{URL: "ws://127.0.0.1:1"}, nil)
	if err := c.Emit(protocol.EventInputs, protocol.InputsMsg{Accel: 1}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if c.messageQueue.QueueSize(c.ID) != 1 {
		t.Fatalf("expected frame in backlog, got %d", c.messageQueue.QueueSize(c.ID))
	}
	if len(c.Send) != 0 {
		t.Fatalf("nothing should reach the send buffer while disconnected")
	}
}

func TestClientWaitsForConnectBeforeEvents(t *testing.T) {
	received := make(chan string, 16)
	clientIDs := make(chan string, 4)
	srv := fakeServer(t, received, clientIDs)
	defer srv.Close()

	c := NewClient(ClientConfig{URL: wsURL(srv), ReconnectInterval: 10 * time.Millisecond}, nil)
	stale := `42["uinput",{"accel":1,"rot":0,"gun":0}]`
	c.Send <- []byte(stale)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = c.Run(ctx) }()
	go func() {
		for range c.Events() {
		}
	}()

	var got []string
	for len(got) == 0 || got[len(got)-1] != stale {
		select {
		case msg := <-received:
			got = append(got, msg)
		case <-ctx.Done():
			t.Fatalf("leftover frame never delivered, got %v", got)
		}
	}
	if got[0] != "40" {
		t.Fatalf("expected the connect frame first, got %v", got)
	}
}

func TestClientGivesUp(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(ClientConfig{URL: "ws://127.0.0.1:1", ReconnectInterval: time.Millisecond, MaxRetryAttempts: 2}, NewMessageQueue(dir))
	if err := c.Emit(protocol.EventSetName, protocol.SetNameMsg{Name: "A"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	dials := 0
	c.dial = func(string, string) (*websocket.Conn, error) {
		dials++
		return nil, errors.New("refused")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	var closes int
	for ev := range c.Events() {
		if ev.Name == protocol.EventClose {
			closes++
		}
	}
	if err := <-done; !errors.Is(err, ErrGaveUp) {
		t.Fatalf("expected ErrGaveUp, got %v", err)
	}
	if dials != 3 || closes != 3 {
		t.Fatalf("expected 3 dials and closes, got %d/%d", dials, closes)
	}
	if c.messageQueue.QueueSize(c.ID) != 0 {
		t.Fatalf("backlog left behind after giving up")
	}
	if files, _ := os.ReadDir(filepath.Join(dir, c.ID)); len(files) != 0 {
		t.Fatalf("persisted frames left behind: %d", len(files))
	}
}
