// Package handlers serve.go exposes the session over a small debug HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

const stateTimeout = 2 * time.Second

// Routes mounts the debug endpoints for sess.
func Routes(sess *Session) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", HandleRoot(sess))
	r.Get("/healthz", handleHealth)
	r.Get("/state", handleState(sess))
	r.Get("/players/{name}", handlePlayer(sess))
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// snapshot fetches a StateView from the session goroutine.
func snapshot(ctx context.Context, sess *Session) (StateView, error) {
	ctx, cancel := context.WithTimeout(ctx, stateTimeout)
	defer cancel()
	var view StateView
	err := sess.Do(ctx, func(s *Session) { view = s.Snapshot() })
	return view, err
}

func handleState(sess *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := snapshot(r.Context(), sess)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, view)
	}
}

func handlePlayer(sess *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		view, err := snapshot(r.Context(), sess)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		for _, p := range view.Players {
			if p.Name == name {
				writeJSON(w, p)
				return
			}
		}
		http.Error(w, "player not found", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
