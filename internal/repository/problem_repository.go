package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/codepractice/codepractice-backend/internal/database"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/textcodec"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrProblemNotFound is returned when no record has the given doc id.
var ErrProblemNotFound = errors.New("problem not found")

const problemColumns = `doc_id::text, COALESCE(id, 0), id IS NOT NULL, title, topic, description, difficulty,
	problem_constraints, examples, sample_code, created_by, created_at, updated_at`

// ProblemRepository is the problem store client over the leetcodequestions table.
// constraints and every sample code body are encoded with textcodec on write
// and decoded on read; values that fail to decode are returned as stored.
type ProblemRepository struct {
	db database.DB
}

// NewProblemRepository creates a new ProblemRepository.
func NewProblemRepository(db database.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

// List scans the whole collection. No ordering is applied.
func (r *ProblemRepository) List(ctx context.Context) ([]model.Problem, error) {
	rows, err := r.db.Query(ctx, `SELECT `+problemColumns+` FROM leetcodequestions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []model.Problem
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		problems = append(problems, *p)
	}
	return problems, rows.Err()
}

// GetByDocID loads one record.
func (r *ProblemRepository) GetByDocID(ctx context.Context, docID string) (*model.Problem, error) {
	row := r.db.QueryRow(ctx, `SELECT `+problemColumns+` FROM leetcodequestions WHERE doc_id = $1::uuid`, docID)
	p, err := scanProblem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProblemNotFound
	}
	return p, err
}

// Create inserts p under a new doc id and returns it. p.DocID and timestamps are filled in.
func (r *ProblemRepository) Create(ctx context.Context, p *model.Problem) (string, error) {
	examples, sampleCode, err := encodeDocuments(p.Examples, p.SampleCode)
	if err != nil {
		return "", err
	}

	docID := uuid.New().String()
	err = r.db.QueryRow(ctx,
		`INSERT INTO leetcodequestions
			(doc_id, id, title, topic, description, difficulty, problem_constraints, examples, sample_code, created_by)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		docID, p.ID, p.Title, string(p.Topic), p.Description, string(p.Difficulty),
		textcodec.Encode(p.Constraints), examples, sampleCode, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return "", err
	}

	p.DocID = docID
	return docID, nil
}

// UpdatePartial writes only the fields set in patch.
func (r *ProblemRepository) UpdatePartial(ctx context.Context, docID string, patch model.ProblemPatch) error {
	if patch.Empty() {
		return nil
	}

	sets := make([]string, 0, 9)
	args := make([]any, 0, 9)
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.ID != nil {
		add("id", *patch.ID)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Topic != nil {
		add("topic", string(*patch.Topic))
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Difficulty != nil {
		add("difficulty", string(*patch.Difficulty))
	}
	if patch.Constraints != nil {
		add("problem_constraints", textcodec.Encode(*patch.Constraints))
	}
	if patch.Examples != nil {
		raw, err := json.Marshal(nonNilExamples(*patch.Examples))
		if err != nil {
			return fmt.Errorf("marshal examples: %w", err)
		}
		add("examples", raw)
	}
	if patch.SampleCode != nil {
		raw, err := json.Marshal(patch.SampleCode.Map(textcodec.Encode))
		if err != nil {
			return fmt.Errorf("marshal sample code: %w", err)
		}
		add("sample_code", raw)
	}

	args = append(args, docID)
	query := fmt.Sprintf(`UPDATE leetcodequestions SET %s, updated_at = NOW() WHERE doc_id = $%d::uuid`,
		strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProblemNotFound
	}
	return nil
}

// Replace overwrites every field of the record stored under docID. The key never changes.
func (r *ProblemRepository) Replace(ctx context.Context, docID string, p *model.Problem) error {
	examples, sampleCode, err := encodeDocuments(p.Examples, p.SampleCode)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE leetcodequestions
		 SET id = $1, title = $2, topic = $3, description = $4, difficulty = $5,
		     problem_constraints = $6, examples = $7, sample_code = $8, updated_at = NOW()
		 WHERE doc_id = $9::uuid`,
		p.ID, p.Title, string(p.Topic), p.Description, string(p.Difficulty),
		textcodec.Encode(p.Constraints), examples, sampleCode, docID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProblemNotFound
	}
	return nil
}

// Delete removes the record stored under docID.
func (r *ProblemRepository) Delete(ctx context.Context, docID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leetcodequestions WHERE doc_id = $1::uuid`, docID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProblemNotFound
	}
	return nil
}

func scanProblem(row pgx.Row) (*model.Problem, error) {
	var (
		p                                    model.Problem
		seq                                  int
		hasSeq                               bool
		topic, difficulty, storedConstraints string
		examples, sampleCode                 []byte
	)
	if err := row.Scan(&p.DocID, &seq, &hasSeq, &p.Title, &topic, &p.Description, &difficulty,
		&storedConstraints, &examples, &sampleCode, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if hasSeq {
		p.ID = model.IntPtr(seq)
	}
	p.Topic = model.Topic(topic)
	p.Difficulty = model.Difficulty(difficulty)
	p.Constraints = textcodec.DecodeOrRaw(storedConstraints)

	p.Examples = []model.Example{}
	if len(examples) > 0 {
		if err := json.Unmarshal(examples, &p.Examples); err != nil {
			return nil, fmt.Errorf("decode examples of %s: %w", p.DocID, err)
		}
	}
	if len(sampleCode) > 0 {
		var stored model.SampleCode
		if err := json.Unmarshal(sampleCode, &stored); err != nil {
			return nil, fmt.Errorf("decode sample code of %s: %w", p.DocID, err)
		}
		p.SampleCode = stored.Map(textcodec.DecodeOrRaw)
	}
	return &p, nil
}

func encodeDocuments(examples []model.Example, sampleCode model.SampleCode) ([]byte, []byte, error) {
	ex, err := json.Marshal(nonNilExamples(examples))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal examples: %w", err)
	}
	sc, err := json.Marshal(sampleCode.Map(textcodec.Encode))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal sample code: %w", err)
	}
	return ex, sc, nil
}

func nonNilExamples(in []model.Example) []model.Example {
	if in == nil {
		return []model.Example{}
	}
	return in
}
