package root

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/desk-pet/internal/api"
	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/entropy"
	"github.com/talgya/desk-pet/internal/items"
	"github.com/talgya/desk-pet/internal/persistence"
	"github.com/talgya/desk-pet/internal/pet"
)

func newServeCmd() *cobra.Command {
	var memory, fresh bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pet simulation and host bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			slog.Info("desk-pet starting", "version", Version, "config", configPath)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// ── Storage ───────────────────────────────────────────────
			opts := pet.Options{
				Behavior:    cfg.Behavior(),
				Interaction: cfg.Interaction(),
				Pointer:     cfg.Pointer(),
				Needs:       cfg.Needs(),
				Catalog:     items.DefaultCatalog(),
				WalkFrame:   pet.DefaultOptions().WalkFrame,
			}
			if cfg.Seed != 0 {
				opts.Random = entropy.NewSeeded(cfg.Seed)
			}

			var db *persistence.DB
			if memory {
				opts.Store = persistence.NewMemoryStore()
				slog.Info("running without database")
			} else {
				if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
					return fmt.Errorf("create data dir: %w", err)
				}
				db, err = persistence.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				if fresh {
					if err := db.DeleteMeta(ctx, opts.Needs.StorageKey); err != nil {
						return fmt.Errorf("clear saved needs: %w", err)
					}
					if err := db.ClearStatEvents(ctx); err != nil {
						return fmt.Errorf("clear stat history: %w", err)
					}
					slog.Info("starting a fresh pet", "path", cfg.DBPath)
				}
				opts.Store = db
				opts.History = db
				slog.Info("database opened", "path", cfg.DBPath)
			}

			// ── Event loop ────────────────────────────────────────────
			loop := engine.NewLoop()
			loopDone := make(chan struct{})
			go func() {
				loop.Run(context.Background())
				close(loopDone)
			}()
			defer func() {
				loop.Stop()
				<-loopDone
			}()

			var companion *pet.Companion
			if err := loop.Do(func() {
				companion = pet.New(ctx, opts, loop)
				companion.Start()
			}); err != nil {
				return err
			}
			defer loop.Do(companion.Close)

			// ── Host bridge ───────────────────────────────────────────
			var history api.HistoryReader
			if db != nil {
				history = db
			}
			srv, err := api.NewServer(companion, loop, history, cfg.APIPort)
			if err != nil {
				return err
			}
			if err := srv.Run(ctx); err != nil {
				return err
			}

			slog.Info("desk-pet stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "keep state in memory only")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "discard saved needs and stat history before starting")
	return cmd
}
