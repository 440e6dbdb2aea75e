package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/codepractice/codepractice-backend/internal/cache"
	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/database"
	"github.com/codepractice/codepractice-backend/internal/logger"
	"github.com/codepractice/codepractice-backend/internal/repository"
	"github.com/codepractice/codepractice-backend/internal/sequencer"
	"github.com/codepractice/codepractice-backend/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print the planned id changes without writing")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	problemRepo := repository.NewProblemRepository(pool)

	if *dryRun {
		problems, err := problemRepo.List(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list problems")
		}
		plan := sequencer.Plan(sequencer.Order(problems))
		for _, a := range plan {
			from := "none"
			if a.From != nil {
				from = fmt.Sprint(*a.From)
			}
			fmt.Printf("%s -> %d  %s\n", from, a.To, a.Title)
		}
		fmt.Printf("\n%d of %d problems would be renumbered.\n", len(plan), len(problems))
		return
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	problemService := service.NewProblemService(
		problemRepo,
		cache.NewProblemCache(rdb, cfg.ProblemCacheTTL),
		cache.NewEventPublisher(rdb),
		cache.NewMutationLock(rdb, cfg.ResequenceLockTTL, 30*time.Second),
		log,
	)

	fmt.Println("=== Reassigning problem ids ===")

	res, err := problemService.Resequence(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Resequence failed")
	}

	fmt.Printf("Finished. %d problems, %d ids rewritten.\n", res.Count, res.Writes)
}
