package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/engine/assets"
	"github.com/robalobadob/wordle/apps/engine/internal/config"
	"github.com/robalobadob/wordle/apps/engine/internal/db"
	"github.com/robalobadob/wordle/apps/engine/internal/engine"
	"github.com/robalobadob/wordle/apps/engine/internal/httpserver"
	"github.com/robalobadob/wordle/apps/engine/internal/store"
	"github.com/robalobadob/wordle/apps/engine/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	picker, err := words.NewPicker(cfg.WordPick, cfg.DailySalt)
	if err != nil {
		log.Fatal().Err(err).Msg("word picker")
	}
	var wordFS fs.FS = assets.Words()
	if cfg.WordsDir != "" {
		wordFS = os.DirFS(cfg.WordsDir)
	}
	catalog, err := words.Load(wordFS, words.Defaults(), picker)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}

	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open database")
	}
	defer conn.Close()
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	repo, closeRepo, err := openRepository(cfg, conn)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("open session store")
	}
	defer closeRepo()

	games := engine.New(catalog, catalog, repo)
	srv := httpserver.New(cfg, games, conn, catalog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("store", cfg.Store).
		Str("pick", cfg.WordPick).
		Msg("starting engine server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
	}
}

// openRepository builds the session store selected by STORE.
func openRepository(cfg config.Config, conn *sql.DB) (store.Repository, func(), error) {
	switch cfg.Store {
	case config.StoreBolt:
		b, err := store.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	case config.StoreSQLite:
		return store.NewSQLite(conn), func() {}, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}
