// Command atomsim runs the atom clicker game server: it loads the catalog,
// resumes the stored save (or starts fresh), drives the frame loop and
// serves the HTTP API until interrupted, then saves one last time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/atom-clicker/internal/api"
	"github.com/talgya/atom-clicker/internal/catalog"
	"github.com/talgya/atom-clicker/internal/config"
	"github.com/talgya/atom-clicker/internal/engine"
	"github.com/talgya/atom-clicker/internal/persistence"
)

func main() {
	exportPath := flag.String("export", "", "write a compressed backup of the save and snapshots to this file and exit")
	importPath := flag.String("import", "", "restore a backup written by -export and exit")
	flag.Parse()

	cfg, err := config.FromEnv()
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	switch {
	case *exportPath != "":
		if err := exportBackup(db, *exportPath); err != nil {
			slog.Error("export failed", "error", err)
			os.Exit(1)
		}
		return
	case *importPath != "":
		if err := importBackup(db, *importPath); err != nil {
			slog.Error("import failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// ── Catalog ───────────────────────────────────────────────────────
	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		slog.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded",
		"buildings", len(cat.Buildings),
		"upgrades", len(cat.Upgrades),
		"boosts", len(cat.Boosts),
	)

	// ── Load or Start Fresh ──────────────────────────────────────────
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	session := engine.NewSession(cat, db, seed)
	resumed, err := session.LoadSaved()
	switch {
	case err != nil:
		// A bad save must not brick the game. The rejected text is kept as a
		// snapshot and can be restored once the catalog reads it again.
		slog.Warn("saved game could not be loaded, starting fresh", "error", err)
	case resumed:
		v := session.View()
		slog.Info("saved game restored", "atoms", v.AtomsShort, "aps", v.APSShort, "clicks", v.TotalClicks)
	default:
		slog.Info("no saved game found, starting fresh")
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(cfg.FPS)
	eng.SetSpeed(cfg.Speed)
	eng.AutosaveFrames = cfg.AutosaveFrames()

	apiServer := &api.Server{
		Session:  session,
		Eng:      eng,
		Addr:     cfg.Addr,
		AdminKey: cfg.AdminKey,
	}
	if cfg.ClickRate > 0 {
		apiServer.ClickLimiter = api.NewRateLimiter(cfg.ClickRate, cfg.ClickBurst)
	}
	if cfg.AdminKey == "" {
		slog.Warn("ATOMSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	eng.OnFrame = func(_ uint64, dt float64) { session.Advance(dt) }
	eng.OnSecond = func(uint64) { apiServer.BroadcastState() }
	eng.OnAutosave = func(frame uint64) {
		if err := session.Save(); err != nil {
			slog.Error("autosave failed", "error", err)
			return
		}
		slog.Debug("autosaved", "frame", frame, "uptime", engine.Uptime(frame, eng.FPS))
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	httpServer := apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nAtom clicker is running: %d buildings, %d upgrades.\n", len(cat.Buildings), len(cat.Upgrades))
	fmt.Printf("API: http://localhost%s/api/v1/state\n", cfg.Addr)
	fmt.Println("Starting game loop... (Ctrl+C to stop)")

	eng.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	apiServer.Close()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := session.Save(); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Game stopped. Progress saved.")
}

func exportBackup(db *persistence.DB, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := db.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("backup written", "path", path)
	return nil
}

func importBackup(db *persistence.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := persistence.ReadBackup(f)
	if err != nil {
		return err
	}
	n, err := db.Import(b)
	if err != nil {
		return err
	}
	slog.Info("backup restored", "path", path, "exported_at", b.ExportedAt, "snapshots_added", n)
	return nil
}
