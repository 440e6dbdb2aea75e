// Package sequencer keeps the user-facing problem ids dense.
//
// After any structural change to the collection, every record is ordered by
// its current id (records without an id last, ties broken by title) and
// renumbered 1..N. Only records whose id actually changes are written, one
// point update each, in sort order. The pass is not transactional: the first
// failed write stops it and earlier writes stay applied.
package sequencer

import (
	"context"
	"fmt"
	"sort"

	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// IDWriter persists a partial update of a single record.
type IDWriter interface {
	UpdatePartial(ctx context.Context, docID string, patch model.ProblemPatch) error
}

// Assignment is one planned id change.
type Assignment struct {
	Index int
	DocID string
	Title string
	From  *int
	To    int
}

// Result is the outcome of a pass. Records are in sequence order and carry
// the ids that were actually persisted.
type Result struct {
	Records []model.Problem
	Writes  int
}

// Error reports a write that failed mid-pass. Applied writes are not rolled back.
type Error struct {
	Index   int
	DocID   string
	Applied int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resequence: write %d (doc %s) failed after %d applied: %v", e.Index+1, e.DocID, e.Applied, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Order returns a copy of records sorted by id ascending, records without an
// id last, equal ids ordered by title using English collation.
func Order(records []model.Problem) []model.Problem {
	sorted := make([]model.Problem, len(records))
	copy(sorted, records)

	coll := collate.New(language.English)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		aid, aok := a.SeqID()
		bid, bok := b.SeqID()
		switch {
		case aok && !bok:
			return true
		case !aok && bok:
			return false
		case aok && bok && aid != bid:
			return aid < bid
		}
		return coll.CompareString(a.Title, b.Title) < 0
	})
	return sorted
}

// Plan lists the writes needed to renumber ordered (the output of Order) as 1..N.
func Plan(ordered []model.Problem) []Assignment {
	var plan []Assignment
	for i := range ordered {
		target := i + 1
		if ordered[i].HasSeqID(target) {
			continue
		}
		plan = append(plan, Assignment{
			Index: i,
			DocID: ordered[i].DocID,
			Title: ordered[i].Title,
			From:  ordered[i].ID,
			To:    target,
		})
	}
	return plan
}

// Sequencer runs renumbering passes against a store.
type Sequencer struct {
	w   IDWriter
	log zerolog.Logger
}

// New creates a Sequencer writing through w.
func New(w IDWriter, log zerolog.Logger) *Sequencer {
	return &Sequencer{
		w:   w,
		log: log.With().Str("component", "sequencer").Logger(),
	}
}

// Resequence renumbers records, which must be the full collection after the
// triggering change. On failure the returned Result still reflects every
// write that succeeded, and the error is a *Error.
func (s *Sequencer) Resequence(ctx context.Context, records []model.Problem) (Result, error) {
	ordered := Order(records)
	plan := Plan(ordered)

	res := Result{Records: ordered}
	for _, a := range plan {
		to := a.To
		if err := s.w.UpdatePartial(ctx, a.DocID, model.ProblemPatch{ID: &to}); err != nil {
			s.log.Error().Err(err).
				Str("doc_id", a.DocID).
				Int("target", to).
				Int("applied", res.Writes).
				Msg("Resequence aborted")
			return res, &Error{Index: res.Writes, DocID: a.DocID, Applied: res.Writes, Err: err}
		}
		res.Records[a.Index].ID = model.IntPtr(to)
		res.Writes++

		s.log.Debug().
			Str("doc_id", a.DocID).
			Str("title", a.Title).
			Int("id", to).
			Msg("Assigned id")
	}

	if res.Writes > 0 {
		s.log.Info().Int("records", len(ordered)).Int("writes", res.Writes).Msg("Resequenced problems")
	}
	return res, nil
}
