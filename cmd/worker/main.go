// Package main implements the DriveScout recurring-search worker. It runs
// the scrape pipeline for stored recurring queries, emails the results,
// and retires queries past their end date.
package main

import (
	"context"
	"log/slog"
	"net/smtp"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/DriveScout/drivescout/engine/convo"
	"github.com/DriveScout/drivescout/engine/domain"
	"github.com/DriveScout/drivescout/engine/mail"
	"github.com/DriveScout/drivescout/engine/sched"
	"github.com/DriveScout/drivescout/engine/scrape"
	"github.com/DriveScout/drivescout/engine/store"
	"github.com/DriveScout/drivescout/pkg/fn"
	"github.com/DriveScout/drivescout/pkg/metrics"
)

// Config holds all environment-based configuration.
type Config struct {
	DBPath        string
	NATSURL       string
	SweepInterval time.Duration
	SMTPAddr      string
	SMTPUser      string
	SMTPPass      string
	MailFrom      string
}

func loadConfig() Config {
	sweep, err := time.ParseDuration(envOr("SWEEP_INTERVAL", "1h"))
	if err != nil {
		sweep = time.Hour
	}
	return Config{
		DBPath:        envOr("DB_PATH", "drivescout.db"),
		NATSURL:       envOr("NATS_URL", ""),
		SweepInterval: sweep,
		SMTPAddr:      envOr("SMTP_ADDR", ""),
		SMTPUser:      envOr("SMTP_USER", ""),
		SMTPPass:      envOr("SMTP_PASS", ""),
		MailFrom:      envOr("MAIL_FROM", "alerts@drivescout.local"),
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
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var sender mail.Sender = &mail.LogSender{Log: logger}
	if cfg.SMTPAddr != "" {
		var auth smtp.Auth
		if cfg.SMTPUser != "" {
			host, _, _ := strings.Cut(cfg.SMTPAddr, ":")
			auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, host)
		}
		sender = &mail.SMTP{Addr: cfg.SMTPAddr, From: cfg.MailFrom, Auth: auth}
	}

	w := &worker{
		db:      db,
		scraper: scrape.New(scrape.Config{Metrics: metrics.New(), Logger: logger}),
		sender:  sender,
		log:     logger,
	}

	// New schedules also arrive over NATS so the first search runs
	// immediately instead of waiting for the next sweep.
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("drivescout-worker"))
		if err != nil {
			return err
		}
		defer nc.Drain()

		sub, err := sched.OnScheduleCreated(nc, func(ctx context.Context, evt sched.ScheduleCreated) {
			q, err := db.GetRecurringQuery(ctx, evt.QueryID)
			if err != nil {
				logger.Error("lookup new recurring query failed", "query_id", evt.QueryID, "err", err)
				return
			}
			w.runQuery(ctx, sched.RunnableQuery{QueryID: q.QueryID, UserID: q.UserID, Criteria: q.Criteria, Schedule: q.Schedule})
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	logger.Info("worker starting", "sweep_interval", cfg.SweepInterval)
	dispatcher := sched.NewDispatcher(storeSource{db}, w.runQuery, cfg.SweepInterval, logger)
	dispatcher.Run(ctx)
	return nil
}

// storeSource adapts the store to the dispatcher's query source.
type storeSource struct {
	db *store.Store
}

func (s storeSource) DueQueries(ctx context.Context, now time.Time) ([]sched.RunnableQuery, error) {
	queries, err := s.db.DueQueries(ctx, now)
	if err != nil {
		return nil, err
	}
	return fn.Map(queries, func(q store.RecurringQuery) sched.RunnableQuery {
		return sched.RunnableQuery{QueryID: q.QueryID, UserID: q.UserID, Criteria: q.Criteria, Schedule: q.Schedule}
	}), nil
}

type worker struct {
	db      *store.Store
	scraper *scrape.Scraper
	sender  mail.Sender
	log     *slog.Logger
}

// runQuery executes one recurring query end to end.
func (w *worker) runQuery(ctx context.Context, q sched.RunnableQuery) {
	log := w.log.With("query_id", q.QueryID)

	if expired(q.Schedule, time.Now().UTC()) {
		if err := w.db.Deactivate(ctx, q.QueryID); err != nil {
			log.Error("deactivate expired query failed", "err", err)
		} else {
			log.Info("recurring query expired, deactivated")
		}
		return
	}

	listings := w.scraper.Search(ctx, q.Criteria)
	log.Info("recurring search ran", "listings", len(listings))

	if err := w.db.StoreSearch(ctx, q.UserID, q.Criteria, "recurring", listings); err != nil {
		log.Error("store search failed", "err", err)
	}

	if q.Schedule.Email != nil && len(listings) > 0 {
		subject := "DriveScout: " + convo.FormatCriteria(q.Criteria)
		if err := w.sender.Send(*q.Schedule.Email, subject, convo.FormatResults(listings)); err != nil {
			log.Error("send results failed", "err", err)
		}
	}

	if err := w.db.MarkRun(ctx, q.QueryID, time.Now().UTC()); err != nil {
		log.Error("mark run failed", "err", err)
	}
}

// expired reports whether the schedule's end date has passed. The end day
// itself still runs.
func expired(s domain.Schedule, now time.Time) bool {
	if s.EndDate == nil {
		return false
	}
	end, err := time.Parse("2006-01-02", *s.EndDate)
	if err != nil {
		return false
	}
	return now.After(end.Add(24 * time.Hour))
}
