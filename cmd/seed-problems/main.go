package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/codepractice/codepractice-backend/internal/cache"
	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/database"
	"github.com/codepractice/codepractice-backend/internal/logger"
	"github.com/codepractice/codepractice-backend/internal/repository"
	"github.com/codepractice/codepractice-backend/internal/service"
)

func main() {
	var file, author string
	flag.StringVar(&file, "file", "problems.json", "Path to a JSON export of the problem collection")
	flag.StringVar(&author, "author", "seed", "Value stored in created_by")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read export")
	}
	problems, err := parseExport(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse export")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	problemRepo := repository.NewProblemRepository(pool)
	problemService := service.NewProblemService(
		problemRepo,
		cache.NewProblemCache(rdb, cfg.ProblemCacheTTL),
		cache.NewEventPublisher(rdb),
		cache.NewMutationLock(rdb, cfg.ResequenceLockTTL, 30*time.Second),
		log,
	)

	fmt.Printf("=== Importing %d problems ===\n", len(problems))

	imported := 0
	for i := range problems {
		p := &problems[i]
		p.CreatedBy = author
		if _, err := problemRepo.Create(ctx, p); err != nil {
			fmt.Printf("Error importing %q: %v\n", p.Title, err)
			continue
		}
		imported++
		if imported%25 == 0 {
			fmt.Printf("Imported %d problems...\n", imported)
		}
	}

	// Imported records carry their export rank, then the whole collection is renumbered.
	res, err := problemService.Resequence(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Resequence after import failed")
	}

	fmt.Printf("\nSeed completed! Imported %d/%d problems, %d ids rewritten, %d total.\n",
		imported, len(problems), res.Writes, res.Count)
}
