// Package main implements the DriveScout command-line agent.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/DriveScout/drivescout/engine/convo"
	"github.com/DriveScout/drivescout/engine/extract"
	"github.com/DriveScout/drivescout/engine/sched"
	"github.com/DriveScout/drivescout/engine/scrape"
	"github.com/DriveScout/drivescout/engine/store"
	"github.com/DriveScout/drivescout/pkg/metrics"
	"github.com/DriveScout/drivescout/pkg/ollama"
)

var rootCmd = &cobra.Command{
	Use:   "drivescout",
	Short: "Conversational car search against drive.com.au",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive car search conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, closeFn, err := buildMachine(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		fmt.Println("DriveScout. Tell me what car you're looking for (ctrl-D to quit).")
		session := convo.Session{State: convo.StateInitial}
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			turn := machine.Step(cmd.Context(), "cli", session, line)
			fmt.Println(turn.Response)
			session = turn.Session
		}
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <description>",
	Short: "Run a one-shot search from a free-text description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		extractor := buildExtractor(cmd)
		criteria := extractor.Criteria(cmd.Context(), text)
		if criteria.IsEmpty() {
			return fmt.Errorf("could not find any search criteria in %q", text)
		}
		fmt.Println("Searching for:", convo.FormatCriteria(criteria))

		scraper := scrape.New(scrape.Config{
			Metrics: metrics.New(),
			Logger:  slog.Default(),
		})
		listings := scraper.Search(cmd.Context(), criteria)
		fmt.Println(convo.FormatResults(listings))
		return nil
	},
}

func buildExtractor(cmd *cobra.Command) convo.Extractor {
	ollamaURL, _ := cmd.Flags().GetString("ollama-url")
	if ollamaURL == "" {
		return extract.NewRules()
	}
	model, _ := cmd.Flags().GetString("ollama-model")
	return extract.NewLLM(ollama.New(ollamaURL), model, slog.Default())
}

func buildMachine(cmd *cobra.Command) (*convo.Machine, func(), error) {
	logger := slog.Default()
	dbPath, _ := cmd.Flags().GetString("db")

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	var scheduler convo.Scheduler
	closeFn := func() { db.Close() }
	if natsURL, _ := cmd.Flags().GetString("nats-url"); natsURL != "" {
		nc, err := nats.Connect(natsURL, nats.Name("drivescout-agent"))
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		scheduler = sched.New(nc, logger)
		closeFn = func() {
			nc.Drain()
			db.Close()
		}
	}

	scraper := scrape.New(scrape.Config{Metrics: metrics.New(), Logger: logger})
	machine := convo.NewMachine(buildExtractor(cmd), scraper, db, scheduler, nil, logger)
	return machine, closeFn, nil
}

func main() {
	// Chat transcripts go to stdout; keep logs out of the way on stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	_ = godotenv.Load()

	for _, c := range []*cobra.Command{chatCmd, searchCmd} {
		c.Flags().String("ollama-url", os.Getenv("OLLAMA_URL"), "Ollama base URL for LLM extraction (rules-based if empty)")
		c.Flags().String("ollama-model", envOr("OLLAMA_MODEL", "llama3.2"), "Ollama model name")
	}
	chatCmd.Flags().String("db", envOr("DB_PATH", "drivescout.db"), "SQLite database path")
	chatCmd.Flags().String("nats-url", os.Getenv("NATS_URL"), "NATS URL for schedule events (optional)")

	rootCmd.AddCommand(chatCmd, searchCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
