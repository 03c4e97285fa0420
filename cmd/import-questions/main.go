package main

import (
	"context"
	"flag"
	"fmt"
	"slices"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/database"
	"github.com/boqueria/training-api/internal/logger"
	"github.com/boqueria/training-api/internal/quiz"
	"github.com/boqueria/training-api/internal/repository"
)

func main() {
	var (
		path   string
		dryRun bool
	)

	cfg := config.Load()
	flag.StringVar(&path, "file", cfg.XLSXPath, "Path to the question workbook")
	flag.BoolVar(&dryRun, "dry-run", false, "Parse the workbook and report counts without writing")
	flag.Parse()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	xlsx := repository.NewXLSXQuestionSource(path)
	sheets, err := xlsx.SheetNames()
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to open workbook")
	}

	var store *repository.PostgresQuestionSource
	if !dryRun {
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		store = repository.NewPostgresQuestionSource(pool)
	}

	fmt.Printf("=== Importing %s ===\n", path)

	imported := 0
	for _, level := range cfg.Levels {
		if !slices.Contains(sheets, level.ID) {
			log.Warn().Str("level", level.ID).Msg("No sheet for configured level, skipping")
			continue
		}

		rows, err := xlsx.FetchRows(ctx, level.ID)
		if err != nil {
			log.Fatal().Err(err).Str("level", level.ID).Msg("Failed to read sheet")
		}
		playable := len(quiz.BuildOrder(rows))

		if dryRun {
			fmt.Printf("%-20s %4d rows, %4d playable\n", level.ID, len(rows), playable)
			continue
		}

		n, err := store.ReplaceLevel(ctx, level.ID, rows)
		if err != nil {
			log.Fatal().Err(err).Str("level", level.ID).Msg("Failed to import level")
		}
		fmt.Printf("%-20s %4d rows imported, %4d playable\n", level.ID, n, playable)
		imported++
	}

	fmt.Printf("Done. %d level(s) imported.\n", imported)
}
