package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/4cecoder/shipsync/models"
	"github.com/4cecoder/shipsync/protocol"
)

func runningSession(t *testing.T) *Session {
	t.Helper()
	s, _, _ := newTestSession()
	connectAs(t, s, "A")
	s.Handle(ev(protocol.EventShotsFired, `{"owner":"A","versor":{"x":0,"y":1},"minpoint":{"x":0,"y":0},"maxpoint":{"x":0,"y":2},"id":3}`))

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event)
	go func() { _ = s.Run(ctx, events) }()
	t.Cleanup(cancel)
	return s
}

func TestStateEndpoint(t *testing.T) {
	srv := httptest.NewServer(Routes(runningSession(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var view StateView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "connected" || view.Me != "A" || len(view.Players) != 1 || len(view.Shots) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Shots[0].ID != 3 || view.Shots[0].Angle == 0 {
		t.Fatalf("unexpected shot view %+v", view.Shots[0])
	}
}

func TestPlayerEndpoint(t *testing.T) {
	srv := httptest.NewServer(Routes(runningSession(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/players/A")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var p models.PlayerData
	_ = json.NewDecoder(resp.Body).Decode(&p)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || p.Name != "A" {
		t.Fatalf("status %d player %+v", resp.StatusCode, p)
	}

	resp, err = http.Get(srv.URL + "/players/nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRootAndHealth(t *testing.T) {
	srv := httptest.NewServer(Routes(runningSession(t)))
	defer srv.Close()

	rec := httptest.NewRecorder()
	Routes(runningSession(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	if !strings.Contains(buf.String(), "<b>A</b>") {
		t.Fatalf("status page missing local player: %s", buf.String())
	}
}
