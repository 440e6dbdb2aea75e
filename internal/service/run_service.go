package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Runner executes code remotely.
type Runner interface {
	Run(ctx context.Context, lang model.Language, code, input string) (*model.RunResult, error)
}

// RunHistory reads persisted runs.
type RunHistory interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.CodeRun, error)
}

// RunService sends editor code to the runner and queues a history record
// for the code-run worker.
type RunService struct {
	runner  Runner
	history RunHistory
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewRunService creates a new RunService.
func NewRunService(runner Runner, history RunHistory, rdb *redis.Client, log zerolog.Logger) *RunService {
	return &RunService{
		runner:  runner,
		history: history,
		rdb:     rdb,
		log:     log.With().Str("component", "run_service").Logger(),
	}
}

// Run executes req against the runner. Queueing the history record is best
// effort and never fails the run.
func (s *RunService) Run(ctx context.Context, sess model.Session, problemDocID string, req model.RunCodeRequest) (*model.RunResult, error) {
	lang, err := model.ParseLanguage(req.Language)
	if err != nil {
		return nil, err
	}

	res, err := s.runner.Run(ctx, lang, req.Code, req.Input)
	if err != nil {
		return nil, err
	}

	run := model.CodeRun{
		ID:           uuid.New(),
		ProblemDocID: problemDocID,
		UserID:       sess.UserID,
		Language:     lang,
		Succeeded:    !res.IsError,
		Output:       res.Output,
		CreatedAt:    time.Now().UTC(),
	}
	raw, err := json.Marshal(run)
	if err == nil {
		err = s.rdb.RPush(ctx, config.WorkerKey.PersistCodeRunsQueue, string(raw)).Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Str("problem_doc_id", problemDocID).Msg("Failed to queue code run")
	}

	return res, nil
}

// Recent lists the caller's latest runs.
func (s *RunService) Recent(ctx context.Context, sess model.Session, limit int) ([]model.CodeRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs, err := s.history.ListByUser(ctx, sess.UserID, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []model.CodeRun{}
	}
	return runs, nil
}
