package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const CodeRunPollTimeout = 1 * time.Second

// CodeRunWriter persists a batch of runs.
type CodeRunWriter interface {
	InsertBatch(ctx context.Context, runs []model.CodeRun) error
}

// CodeRunWorker consumes persist_code_runs_queue and writes runs to
// PostgreSQL in batches. A failed batch falls back to one insert per run;
// runs that still fail go back on the queue.
type CodeRunWorker struct {
	store      CodeRunWriter
	rdb        *redis.Client
	log        zerolog.Logger
	batchSize  int
	flushEvery time.Duration
}

// NewCodeRunWorker creates a new CodeRunWorker.
func NewCodeRunWorker(store CodeRunWriter, rdb *redis.Client, batchSize int, flushEvery time.Duration, log zerolog.Logger) *CodeRunWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if flushEvery <= 0 {
		flushEvery = 2 * time.Second
	}
	return &CodeRunWorker{
		store:      store,
		rdb:        rdb,
		log:        log.With().Str("component", "code_run_worker").Logger(),
		batchSize:  batchSize,
		flushEvery: flushEvery,
	}
}

// Start runs the worker loop until ctx is done, then flushes what it holds.
// Call in a goroutine.
func (w *CodeRunWorker) Start(ctx context.Context) {
	w.log.Info().Msg("CodeRunWorker started")

	batch := make([]model.CodeRun, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.flushEvery) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			if run, ok := w.next(ctx); ok {
				batch = append(batch, run)
			}
		}
	}
}

// next pops one run from the queue, waiting up to CodeRunPollTimeout.
func (w *CodeRunWorker) next(ctx context.Context) (model.CodeRun, bool) {
	item, err := w.rdb.BLPop(ctx, CodeRunPollTimeout, config.WorkerKey.PersistCodeRunsQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return model.CodeRun{}, false
	}
	if len(item) < 2 {
		return model.CodeRun{}, false
	}

	var run model.CodeRun
	if err := json.Unmarshal([]byte(item[1]), &run); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return model.CodeRun{}, false
	}
	return run, true
}

func (w *CodeRunWorker) flushSafe(ctx context.Context, batch []model.CodeRun) {
	if len(batch) == 0 {
		return
	}

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("runs", len(batch)).Msg("Persisted code runs")
		return
	}
	w.log.Warn().Err(err).Int("runs", len(batch)).Msg("Bulk code run insert failed, using fallback")

	for _, run := range batch {
		if err := w.store.InsertBatch(ctx, []model.CodeRun{run}); err != nil {
			w.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("Single insert failed, requeueing")
			w.requeue(ctx, run)
		}
	}
}

// requeue pushes run back onto the queue. It survives cancellation of ctx
// so a shutdown mid-flush does not drop the run.
func (w *CodeRunWorker) requeue(ctx context.Context, run model.CodeRun) {
	raw, err := json.Marshal(run)
	if err != nil {
		w.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("Failed to encode code run for requeue")
		return
	}
	if err := w.rdb.RPush(context.WithoutCancel(ctx), config.WorkerKey.PersistCodeRunsQueue, string(raw)).Err(); err != nil {
		w.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("Failed to requeue code run, dropping it")
	}
}
