// Package main implements the DriveScout API server.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/DriveScout/drivescout/engine/convo"
	"github.com/DriveScout/drivescout/engine/domain"
	"github.com/DriveScout/drivescout/engine/extract"
	"github.com/DriveScout/drivescout/engine/sched"
	"github.com/DriveScout/drivescout/engine/scrape"
	"github.com/DriveScout/drivescout/engine/store"
	"github.com/DriveScout/drivescout/pkg/metrics"
	"github.com/DriveScout/drivescout/pkg/mid"
	"github.com/DriveScout/drivescout/pkg/ollama"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	DBPath      string
	NATSURL     string
	OllamaURL   string
	OllamaModel string
	CORSOrigin  string
}

func loadConfig() Config {
	return Config{
		Port:        envOr("PORT", "8080"),
		DBPath:      envOr("DB_PATH", "drivescout.db"),
		NATSURL:     envOr("NATS_URL", ""),
		OllamaURL:   envOr("OLLAMA_URL", ""),
		OllamaModel: envOr("OLLAMA_MODEL", "llama3.2"),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	// NATS is optional: without it, recurring queries are stored but the
	// worker is never notified and picks them up on its next sweep.
	var scheduler convo.Scheduler
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("drivescout-api"))
		if err != nil {
			return err
		}
		defer nc.Drain()
		scheduler = sched.New(nc, logger)
	}

	var extractor convo.Extractor = extract.NewRules()
	if cfg.OllamaURL != "" {
		extractor = extract.NewLLM(ollama.New(cfg.OllamaURL), cfg.OllamaModel, logger)
	}

	scraper := scrape.New(scrape.Config{Metrics: reg, Logger: logger})
	machine := convo.NewMachine(extractor, scraper, db, scheduler, reg, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("POST /api/converse", handleConverse(machine, logger))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("drivescout-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ConverseRequest is the JSON body for POST /api/converse. Session is the
// opaque state returned by the previous turn; omit it to start fresh.
type ConverseRequest struct {
	UserID  string          `json:"user_id"`
	Message string          `json:"message"`
	Session json.RawMessage `json:"session,omitempty"`
}

// ConverseResponse is the JSON response for POST /api/converse.
type ConverseResponse struct {
	Response string          `json:"response"`
	Session  json.RawMessage `json:"session"`
	Action   string          `json:"action"`
	Criteria domain.Criteria `json:"criteria"`
}

func handleConverse(machine *convo.Machine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConverseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Message == "" {
			http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
			return
		}

		if req.UserID == "" {
			req.UserID = "anonymous"
		}
		session := convo.DecodeSession(req.Session)
		turn := machine.Step(r.Context(), req.UserID, session, req.Message)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ConverseResponse{
			Response: turn.Response,
			Session:  convo.EncodeSession(turn.Session),
			Action:   turn.Action,
			Criteria: turn.Session.Criteria,
		})
	}
}
