package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memWriter records point updates and can fail on the n-th write (1-based).
type memWriter struct {
	ids    map[string]*int
	calls  []string
	failAt int
}

func newMemWriter(records []model.Problem) *memWriter {
	w := &memWriter{ids: make(map[string]*int)}
	for _, r := range records {
		w.ids[r.DocID] = r.ID
	}
	return w
}

func (w *memWriter) UpdatePartial(_ context.Context, docID string, patch model.ProblemPatch) error {
	w.calls = append(w.calls, docID)
	if w.failAt > 0 && len(w.calls) == w.failAt {
		return errors.New("store unavailable")
	}
	if patch.ID != nil {
		w.ids[docID] = model.IntPtr(*patch.ID)
	}
	return nil
}

func problem(docID, title string, id *int) model.Problem {
	return model.Problem{DocID: docID, Title: title, ID: id}
}

func ids(records []model.Problem) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		if r.ID == nil {
			out = append(out, -1)
			continue
		}
		out = append(out, *r.ID)
	}
	return out
}

func titles(records []model.Problem) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Title)
	}
	return out
}

func TestResequenceDuplicateIDsBreakTiesByTitle(t *testing.T) {
	records := []model.Problem{
		problem("a", "Banana", model.IntPtr(3)),
		problem("b", "Apple", model.IntPtr(3)),
		problem("c", "Zeta", model.IntPtr(1)),
	}
	w := newMemWriter(records)

	res, err := New(w, zerolog.Nop()).Resequence(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, []string{"Zeta", "Apple", "Banana"}, titles(res.Records))
	assert.Equal(t, []int{1, 2, 3}, ids(res.Records))
	// Zeta and Banana already hold their targets.
	assert.Equal(t, []string{"b"}, w.calls)
	assert.Equal(t, 1, res.Writes)
	assert.Equal(t, 2, *w.ids["b"])
}

func TestResequenceAfterDelete(t *testing.T) {
	remaining := []model.Problem{
		problem("one", "One", model.IntPtr(1)),
		problem("three", "Three", model.IntPtr(3)),
		problem("four", "Four", model.IntPtr(4)),
	}
	w := newMemWriter(remaining)

	res, err := New(w, zerolog.Nop()).Resequence(context.Background(), remaining)
	require.NoError(t, err)

	assert.Equal(t, []string{"One", "Three", "Four"}, titles(res.Records))
	assert.Equal(t, []int{1, 2, 3}, ids(res.Records))
	assert.Equal(t, []string{"three", "four"}, w.calls)
}

func TestResequenceMissingIDsSortLast(t *testing.T) {
	records := []model.Problem{
		problem("x", "Unnumbered B", nil),
		problem("y", "Seven", model.IntPtr(7)),
		problem("z", "Unnumbered A", nil),
		problem("w", "Minus", model.IntPtr(-2)),
	}
	w := newMemWriter(records)

	res, err := New(w, zerolog.Nop()).Resequence(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, []string{"Minus", "Seven", "Unnumbered A", "Unnumbered B"}, titles(res.Records))
	assert.Equal(t, []int{1, 2, 3, 4}, ids(res.Records))
}

func TestOrderUsesLocaleCollationForTitles(t *testing.T) {
	records := []model.Problem{
		problem("1", "Banana", model.IntPtr(2)),
		problem("2", "apple", model.IntPtr(2)),
	}

	ordered := Order(records)

	assert.Equal(t, []string{"apple", "Banana"}, titles(ordered))
	// Order must not reorder its input.
	assert.Equal(t, []string{"Banana", "apple"}, titles(records))
}

func TestResequenceIsIdempotent(t *testing.T) {
	records := []model.Problem{
		problem("a", "A", model.IntPtr(10)),
		problem("b", "B", nil),
		problem("c", "C", model.IntPtr(10)),
	}
	w := newMemWriter(records)
	seq := New(w, zerolog.Nop())

	first, err := seq.Resequence(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Writes)

	w.calls = nil
	second, err := seq.Resequence(context.Background(), first.Records)
	require.NoError(t, err)
	assert.Zero(t, second.Writes)
	assert.Empty(t, w.calls)
}

func TestResequencePartialFailureKeepsAppliedWrites(t *testing.T) {
	records := []model.Problem{
		problem("a", "A", nil),
		problem("b", "B", nil),
		problem("c", "C", nil),
		problem("d", "D", nil),
	}
	w := newMemWriter(records)
	w.failAt = 3

	res, err := New(w, zerolog.Nop()).Resequence(context.Background(), records)
	require.Error(t, err)

	var seqErr *Error
	require.True(t, errors.As(err, &seqErr))
	assert.Equal(t, "c", seqErr.DocID)
	assert.Equal(t, 2, seqErr.Applied)
	assert.EqualError(t, errors.Unwrap(err), "store unavailable")

	assert.Equal(t, 2, res.Writes)
	assert.Equal(t, []int{1, 2, -1, -1}, ids(res.Records))
	assert.Equal(t, 1, *w.ids["a"])
	assert.Equal(t, 2, *w.ids["b"])
	assert.Nil(t, w.ids["c"])
	assert.Nil(t, w.ids["d"])
	assert.Len(t, w.calls, 3)
}

func TestResequenceEmptyCollection(t *testing.T) {
	w := newMemWriter(nil)

	res, err := New(w, zerolog.Nop()).Resequence(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Writes)
}

func TestResequenceRandomCollections(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(25)
		records := make([]model.Problem, 0, n)
		for i := 0; i < n; i++ {
			var id *int
			if rng.Intn(4) > 0 {
				id = model.IntPtr(rng.Intn(8) - 1)
			}
			records = append(records, problem(fmt.Sprintf("doc-%d", i), fmt.Sprintf("T%02d", rng.Intn(10)), id))
		}
		ordered := Order(records)
		w := newMemWriter(records)

		res, err := New(w, zerolog.Nop()).Resequence(context.Background(), records)
		require.NoError(t, err)

		// Dense range, in comparator order.
		for i, r := range res.Records {
			require.NotNil(t, r.ID)
			assert.Equal(t, i+1, *r.ID, "round %d", round)
			assert.Equal(t, ordered[i].DocID, r.DocID, "round %d", round)
			assert.Equal(t, i+1, *w.ids[r.DocID], "round %d", round)
		}

		// Records already at their target are never written.
		written := make(map[string]bool, len(w.calls))
		for _, c := range w.calls {
			written[c] = true
		}
		for i, r := range ordered {
			if r.HasSeqID(i + 1) {
				assert.False(t, written[r.DocID], "round %d: %s rewritten", round, r.DocID)
			}
		}
	}
}
