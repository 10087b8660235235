// Package main is the entry point for the chemistry lab engine.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/anthropics/chemlab-engine/internal/assist"
	"github.com/anthropics/chemlab-engine/internal/catalog"
	"github.com/anthropics/chemlab-engine/internal/config"
	"github.com/anthropics/chemlab-engine/internal/domain"
	"github.com/anthropics/chemlab-engine/internal/guard"
	"github.com/anthropics/chemlab-engine/internal/interaction"
	"github.com/anthropics/chemlab-engine/internal/ipc"
	"github.com/anthropics/chemlab-engine/internal/metrics"
	"github.com/anthropics/chemlab-engine/internal/store"
	"github.com/anthropics/chemlab-engine/internal/workbench"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const safetySettingKey = "safety_enabled"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to configuration YAML file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("chemlab %s (commit=%s, built=%s)\n", version, commit, date)
		os.Exit(0)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: init logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	// Resolve config path: --config flag > CHEMLAB_CONFIG env > auto-discover
	// next to the exe. A missing file falls back to built-in defaults so the
	// lab works out of the box.
	path := *configPath
	if path == "" {
		path = os.Getenv("CHEMLAB_CONFIG")
	}
	if path == "" {
		path = discoverConfig()
	}

	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			logger.Fatalw("load config", "path", path, "error", err)
		}
	} else {
		cfg = config.Default()
		logger.Infow("no config file found, using defaults")
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		logger.Fatalw("open database", "path", cfg.DBPath, "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	settingsRepo := &store.SettingsRepo{}
	inventoryRepo := &store.InventoryRepo{}

	// The safety flag persists across sessions; the config value only seeds
	// the first run.
	safety := cfg.SafetyOn()
	if saved, err := settingsRepo.Get(ctx, db, safetySettingKey, strconv.FormatBool(safety)); err == nil {
		if parsed, perr := strconv.ParseBool(saved); perr == nil {
			safety = parsed
		}
	}

	gate := guard.NewGate(safety, guard.GateConfig{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	engine := workbench.NewEngine(gate, logger)
	engine.Algebra.MinVolumeML = cfg.MinVolumeML
	engine.MixTimeout = time.Duration(cfg.Assist.TimeoutSec) * time.Second
	engine.Metrics = metrics.NewSet()
	engine.Sink = &store.PersistentLog{DB: db}

	// Stock the inventory on first run so the UI has something to show.
	seedInventory(ctx, db, inventoryRepo, logger)

	handler := &ipc.Handler{
		Engine:     engine,
		Controller: interaction.NewController(engine, logger),
		Gate:       gate,
	}

	if apiKey := cfg.APIKey(); apiKey != "" {
		client := assist.NewOpenAIClient(apiKey, cfg.Assist.Model,
			time.Duration(cfg.Assist.TimeoutSec)*time.Second, logger)
		engine.Predictor = client
		handler.Searcher = client
		handler.Advisor = client
		logger.Infow("assist collaborator enabled", "model", cfg.Assist.Model)
	} else {
		logger.Infow("assist collaborator disabled, mixing will fail softly",
			"api_key_env", cfg.Assist.APIKeyEnv)
	}

	srv := ipc.NewServer(handler, cfg.ListenAddr, engine.Metrics.Handler())

	// Graceful shutdown on interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Infow("shutting down")

		if err := settingsRepo.Set(ctx, db, safetySettingKey,
			strconv.FormatBool(gate.SafetyEnabled())); err != nil {
			logger.Warnw("persist safety setting", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("server shutdown", "error", err)
		}
	}()

	logger.Infow("chemlab engine listening", "url", ipc.FormatListenURL(cfg.ListenAddr))

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Fatalw("server error", "error", err)
	}
}

// seedInventory fills the persisted inventory slots from the built-in
// catalog when they are empty. Best-effort: failures are logged, not fatal.
func seedInventory(ctx context.Context, db *sql.DB, repo *store.InventoryRepo, logger *zap.SugaredLogger) {
	existing, err := repo.Load(ctx, db, store.SlotChemicals)
	if err != nil {
		logger.Warnw("load inventory", "error", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	var chemicals []domain.CatalogRecord
	for _, c := range catalog.Chemicals() {
		chem := c
		chemicals = append(chemicals, domain.CatalogRecord{Chemical: &chem})
	}
	if err := repo.Save(ctx, db, store.SlotChemicals, chemicals); err != nil {
		logger.Warnw("seed chemical inventory", "error", err)
	}

	var equipment []domain.CatalogRecord
	for _, t := range catalog.EquipmentTemplates() {
		tmpl := t
		equipment = append(equipment, domain.CatalogRecord{Equipment: &tmpl})
	}
	if err := repo.Save(ctx, db, store.SlotEquipment, equipment); err != nil {
		logger.Warnw("seed equipment inventory", "error", err)
	}

	logger.Infow("stocked inventory from catalog",
		"chemicals", len(chemicals), "equipment", len(equipment))
}

// discoverConfig looks for config.yaml next to the executable, then in the cwd.
func discoverConfig() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}
