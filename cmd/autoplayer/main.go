// Command autoplayer plays a running atomsim server through its HTTP API.
// Each cycle it observes the game, picks one action and performs it.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/atom-clicker/internal/autoplay"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	apiURL := envOrDefault("ATOMSIM_API_URL", "http://localhost:8080")
	intervalMS := envIntOrDefault("AUTOPLAY_INTERVAL_MS", 1000)
	clicks := envIntOrDefault("AUTOPLAY_CLICKS", 10)
	journalPath := envOrDefault("AUTOPLAY_JOURNAL", "autoplay_journal.json")
	bulk := os.Getenv("AUTOPLAY_BULK") != "0"

	interval := time.Duration(intervalMS) * time.Millisecond
	slog.Info("autoplayer starting",
		"api_url", apiURL,
		"interval", interval,
		"clicks_per_cycle", clicks,
	)

	journal := autoplay.LoadJournal(journalPath)
	if len(journal.Records) > 0 {
		slog.Info("journal loaded", "records", len(journal.Records), "summary", journal.Summary())
	}
	bot := autoplay.NewBot(apiURL, journal, autoplay.Options{ClicksPerCycle: clicks, Bulk: bulk})

	slog.Info("waiting for atomsim API...")
	waitForAPI(apiURL)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	cycles := 0
	for {
		select {
		case <-ticker.C:
			runCycle(bot)
			cycles++
			if cycles%60 == 0 {
				saveJournal(journal)
				slog.Info("autoplay progress", "cycles", cycles, "summary", journal.Summary())
			}
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			saveJournal(journal)
			fmt.Println("Autoplayer stopped.")
			return
		}
	}
}

// runCycle executes one observe → decide → act cycle.
func runCycle(bot *autoplay.Bot) {
	d, res, err := bot.Cycle()
	if err != nil {
		slog.Error("autoplay cycle failed", "error", err)
		return
	}
	if d.Action == autoplay.ActionClick || d.Action == autoplay.ActionWait {
		return
	}
	slog.Info("autoplay action",
		"action", d.Action,
		"target", d.Target,
		"success", res.Success,
		"rationale", d.Rationale,
	)
}

func saveJournal(j *autoplay.Journal) {
	if err := j.Save(); err != nil {
		slog.Error("failed to write autoplay journal", "error", err)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(apiURL string) {
	backoff := 500 * time.Millisecond
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		resp, err := http.Get(apiURL + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("atomsim API is ready")
				return
			}
		}
		if time.Now().After(deadline) {
			slog.Error("atomsim API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("atomsim not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}
