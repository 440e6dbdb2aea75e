package repository

import (
	"context"
	"time"

	"github.com/codepractice/codepractice-backend/internal/database"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/google/uuid"
)

// CodeRunRepository stores the run history fed by the code-run worker.
type CodeRunRepository struct {
	db database.DB
}

// NewCodeRunRepository creates a new CodeRunRepository.
func NewCodeRunRepository(db database.DB) *CodeRunRepository {
	return &CodeRunRepository{db: db}
}

// InsertBatch writes runs in one statement. Re-delivered runs are ignored by id.
func (r *CodeRunRepository) InsertBatch(ctx context.Context, runs []model.CodeRun) error {
	if len(runs) == 0 {
		return nil
	}

	n := len(runs)
	ids := make([]uuid.UUID, 0, n)
	problems := make([]string, 0, n)
	users := make([]uuid.UUID, 0, n)
	languages := make([]string, 0, n)
	succeeded := make([]bool, 0, n)
	outputs := make([]string, 0, n)
	created := make([]time.Time, 0, n)

	for _, run := range runs {
		ids = append(ids, run.ID)
		problems = append(problems, run.ProblemDocID)
		users = append(users, run.UserID)
		languages = append(languages, string(run.Language))
		succeeded = append(succeeded, run.Succeeded)
		outputs = append(outputs, run.Output)
		created = append(created, run.CreatedAt)
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO code_runs (id, problem_doc_id, user_id, language, succeeded, output, created_at)
		SELECT u.id, u.problem_doc_id::uuid, u.user_id, u.language, u.succeeded, u.output, u.created_at
		FROM UNNEST(
			$1::uuid[],
			$2::text[],
			$3::uuid[],
			$4::text[],
			$5::bool[],
			$6::text[],
			$7::timestamptz[]
		) AS u (id, problem_doc_id, user_id, language, succeeded, output, created_at)
		ON CONFLICT (id) DO NOTHING`,
		ids, problems, users, languages, succeeded, outputs, created,
	)
	return err
}

// ListByUser returns the user's most recent runs, newest first.
func (r *CodeRunRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.CodeRun, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, problem_doc_id::text, user_id, language, succeeded, output, created_at
		 FROM code_runs WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.CodeRun
	for rows.Next() {
		var (
			run  model.CodeRun
			lang string
		)
		if err := rows.Scan(&run.ID, &run.ProblemDocID, &run.UserID, &lang, &run.Succeeded, &run.Output, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Language = model.Language(lang)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
