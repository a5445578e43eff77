package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/4cecoder/shipsync/config"
	"github.com/4cecoder/shipsync/handlers"
	"github.com/4cecoder/shipsync/recorder"
)

// replayEmitter swallows outbound frames while a recording is played back.
type replayEmitter struct{}

func (replayEmitter) Emit(event string, _ any) error {
	log.Printf("[replay] dropping outbound %s", event)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	keys := config.DefaultKeymap()
	if cfg.KeymapFile != "" {
		keys, err = config.LoadKeymap(cfg.KeymapFile)
		if err != nil {
			log.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presenter := handlers.NewLogPresenter(log.Default())

	var (
		sess   *handlers.Session
		events <-chan handlers.Event
		source func(context.Context) error
	)
	if cfg.ReplayFile != "" {
		replayed := make(chan handlers.Event)
		sess = handlers.NewSession(replayEmitter{}, presenter)
		events = replayed
		source = func(ctx context.Context) error {
			return recorder.Replay(ctx, cfg.ReplayFile, replayed, true)
		}
		log.Printf("Replaying %s", cfg.ReplayFile)
	} else {
		client := handlers.NewClient(handlers.ClientConfig{
			URL:               cfg.ServerURL,
			ReconnectInterval: cfg.ReconnectInterval,
			MaxRetryAttempts:  cfg.MaxRetryAttempts,
		}, handlers.NewMessageQueue(cfg.QueueDir))
		sess = handlers.NewSession(client, presenter)
		sess.UseName(cfg.PlayerName)
		events = client.Events()
		source = client.Run
		log.Printf("Connecting to %s as %s", cfg.ServerURL, cfg.PlayerName)
	}

	if cfg.RecordDir != "" {
		w, err := recorder.Create(filepath.Join(cfg.RecordDir, recorder.FileName(time.Now())))
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Printf("close recording: %v", err)
			}
		}()
		sess.SetRecorder(w)
	}

	go func() {
		if err := source(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("event source stopped: %v", err)
		}
	}()

	if !cfg.DebugDisabled {
		srv := &http.Server{Addr: ":" + cfg.Port, Handler: handlers.Routes(sess)}
		go func() {
			log.Printf("Debug server started on :%s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("debug server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	go func() {
		if err := handlers.ReadConsole(ctx, os.Stdin, keys, sess); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("console: %v", err)
		}
	}()

	if err := sess.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("session: %v", err)
	}
	sess.Shutdown()
	log.Println("Client stopped")
}
