package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/textcodec"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var problemRowColumns = []string{
	"doc_id", "id", "has_id", "title", "topic", "description", "difficulty",
	"problem_constraints", "examples", "sample_code", "created_by", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*ProblemRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewProblemRepository(mock), mock
}

func TestProblemRepositoryListDecodesTextFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	stored := model.SampleCode{
		C:      textcodec.Encode("int main() { return 0; }"),
		CPP:    textcodec.Encode("// ✓ unicode"),
		Java:   "legacy raw text!",
		Python: "",
	}
	sampleCode, err := json.Marshal(stored)
	require.NoError(t, err)
	examples := []byte(`[{"input":"[1,2]","output":"1 2","explanation":"min then max"},{"input":"[5]","output":"5 5","explanation":""}]`)

	mock.ExpectQuery(`SELECT .+ FROM leetcodequestions$`).
		WillReturnRows(mock.NewRows(problemRowColumns).
			AddRow("doc-1", 2, true, "Min and Max", "Array", "desc", "1",
				textcodec.Encode("1 <= n <= 10^5"), examples, sampleCode, "a@b.c", now, now).
			AddRow("doc-2", 0, false, "Imported", "Graph", "", "3",
				"not-encoded constraints", []byte(`[]`), []byte(`{}`), "", now, now))

	problems, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 2)

	first := problems[0]
	assert.Equal(t, "doc-1", first.DocID)
	require.NotNil(t, first.ID)
	assert.Equal(t, 2, *first.ID)
	assert.Equal(t, model.Topic("Array"), first.Topic)
	assert.Equal(t, model.DifficultyLevel1, first.Difficulty)
	assert.Equal(t, "1 <= n <= 10^5", first.Constraints)
	assert.Equal(t, "int main() { return 0; }", first.SampleCode.C)
	assert.Equal(t, "// ✓ unicode", first.SampleCode.CPP)
	assert.Equal(t, "legacy raw text!", first.SampleCode.Java)
	assert.Equal(t, "", first.SampleCode.Python)
	require.Len(t, first.Examples, 2)
	assert.Equal(t, "[1,2]", first.Examples[0].Input)
	assert.Equal(t, "[5]", first.Examples[1].Input)

	second := problems[1]
	assert.Nil(t, second.ID)
	assert.Equal(t, "not-encoded constraints", second.Constraints)
	assert.Empty(t, second.Examples)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryCreateEncodesTextFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	p := &model.Problem{
		ID:          model.IntPtr(4),
		Title:       "Two Sum",
		Topic:       "Hash Table",
		Description: "find two numbers",
		Difficulty:  model.DifficultyLevel2,
		Constraints: "2 <= nums.length ≤ 10⁴",
		Examples:    []model.Example{{Input: "[2,7] 9", Output: "[0,1]"}},
		SampleCode:  model.SampleCode{Python: "def two_sum(nums, target): pass"},
		CreatedBy:   "author@example.com",
	}
	examples, err := json.Marshal(p.Examples)
	require.NoError(t, err)
	sampleCode, err := json.Marshal(p.SampleCode.Map(textcodec.Encode))
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO leetcodequestions`).
		WithArgs(pgxmock.AnyArg(), p.ID, "Two Sum", "Hash Table", "find two numbers", "2",
			textcodec.Encode(p.Constraints), examples, sampleCode, "author@example.com").
		WillReturnRows(mock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	docID, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	assert.NotEmpty(t, docID)
	assert.Equal(t, docID, p.DocID)
	assert.Equal(t, now, p.CreatedAt)
	// The in-memory record keeps plain text.
	assert.Equal(t, "2 <= nums.length ≤ 10⁴", p.Constraints)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryUpdatePartialWritesOnlySetFields(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE leetcodequestions SET id = \$1, updated_at = NOW\(\) WHERE doc_id = \$2::uuid`).
		WithArgs(3, "doc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdatePartial(context.Background(), "doc-1", model.ProblemPatch{ID: model.IntPtr(3)})
	require.NoError(t, err)

	title := "Renamed"
	constraints := "n ≥ 1"
	mock.ExpectExec(`UPDATE leetcodequestions SET title = \$1, problem_constraints = \$2, updated_at = NOW\(\) WHERE doc_id = \$3::uuid`).
		WithArgs("Renamed", textcodec.Encode(constraints), "doc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdatePartial(context.Background(), "doc-1", model.ProblemPatch{Title: &title, Constraints: &constraints})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryUpdatePartialEmptyPatchIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)

	require.NoError(t, repo.UpdatePartial(context.Background(), "doc-1", model.ProblemPatch{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryMissingDocument(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE leetcodequestions SET id`).
		WithArgs(1, "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(`DELETE FROM leetcodequestions`).
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.UpdatePartial(context.Background(), "gone", model.ProblemPatch{ID: model.IntPtr(1)})
	assert.ErrorIs(t, err, ErrProblemNotFound)

	err = repo.Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrProblemNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryReplaceKeepsKey(t *testing.T) {
	repo, mock := newMockRepo(t)

	p := &model.Problem{ID: model.IntPtr(9), Title: "Moved", Topic: "Heap", Difficulty: model.DifficultyLevel4}
	mock.ExpectExec(`UPDATE leetcodequestions\s+SET id = \$1, title = \$2`).
		WithArgs(p.ID, "Moved", "Heap", "", "4", "", []byte(`[]`), pgxmock.AnyArg(), "doc-7").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Replace(context.Background(), "doc-7", p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM leetcodequestions WHERE doc_id`).
		WithArgs("doc-3").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), "doc-3"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
