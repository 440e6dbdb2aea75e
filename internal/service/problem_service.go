package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codepractice/codepractice-backend/internal/cache"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/repository"
	"github.com/codepractice/codepractice-backend/internal/sequencer"
	"github.com/rs/zerolog"
)

// Problem service errors. Store failures wrap the underlying error so callers
// can log it while mapping on the sentinel.
var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrInvalidID       = errors.New("problem id must be a positive integer")
	ErrIDConflict      = errors.New("problem id already used by another problem")
	ErrStoreRead       = errors.New("problem store read failed")
	ErrStoreWrite      = errors.New("problem store write failed")
	ErrBusy            = cache.ErrLockBusy
)

// ProblemStore is the problem store client.
type ProblemStore interface {
	List(ctx context.Context) ([]model.Problem, error)
	Create(ctx context.Context, p *model.Problem) (string, error)
	UpdatePartial(ctx context.Context, docID string, patch model.ProblemPatch) error
	Replace(ctx context.Context, docID string, p *model.Problem) error
	Delete(ctx context.Context, docID string) error
}

// SnapshotCache holds the decoded collection between structural changes.
type SnapshotCache interface {
	Get(ctx context.Context) ([]model.Problem, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, gen int64, problems []model.Problem) error
	Invalidate(ctx context.Context) error
}

// EventNotifier announces structural changes to change-feed subscribers.
type EventNotifier interface {
	Publish(ctx context.Context, ev model.ProblemEvent) error
}

// Locker serializes structural changes.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
}

// MutationResult describes a structural change. Problem is the affected
// record with its final id; it is nil for delete and full resequencing.
type MutationResult struct {
	Problem *model.Problem `json:"problem,omitempty"`
	Count   int            `json:"count"`
	Writes  int            `json:"resequenced"`
}

// ProblemService implements problem browsing and the authoring workflow.
// Create, delete and id-changing updates renumber the whole collection
// afterwards so ids stay 1..N.
type ProblemService struct {
	store  ProblemStore
	cache  SnapshotCache
	events EventNotifier
	lock   Locker
	seq    *sequencer.Sequencer
	log    zerolog.Logger
	now    func() time.Time
}

// NewProblemService creates a new ProblemService.
func NewProblemService(store ProblemStore, snapshots SnapshotCache, events EventNotifier, lock Locker, log zerolog.Logger) *ProblemService {
	return &ProblemService{
		store:  store,
		cache:  snapshots,
		events: events,
		lock:   lock,
		seq:    sequencer.New(store, log),
		log:    log.With().Str("component", "problem_service").Logger(),
		now:    time.Now,
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────────────────────────────────

// List returns the collection in id order narrowed by f.
func (s *ProblemService) List(ctx context.Context, f model.ProblemFilter) ([]model.Problem, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(all, f), nil
}

// GetBySeqID returns the problem whose user-facing id is n.
func (s *ProblemService) GetBySeqID(ctx context.Context, n int) (*model.Problem, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].HasSeqID(n) {
			return &all[i], nil
		}
	}
	return nil, ErrProblemNotFound
}

// NextAvailableID is the id a new problem would receive.
func (s *ProblemService) NextAvailableID(ctx context.Context) (int, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return NextAvailableID(all), nil
}

// snapshot returns the whole collection in sequence order, from the cache if possible.
// A store read that overlaps a structural change is served but not cached.
func (s *ProblemService) snapshot(ctx context.Context) ([]model.Problem, error) {
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Problem cache unavailable, reading store")
	} else if ok {
		return cached, nil
	}

	gen, genErr := s.cache.Generation(ctx)

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	ordered := sequencer.Order(all)

	if genErr != nil {
		s.log.Warn().Err(genErr).Msg("Problem cache generation unavailable, skipping cache fill")
		return ordered, nil
	}
	if err := s.cache.Set(ctx, gen, ordered); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache problem snapshot")
	}
	return ordered, nil
}

// Filter keeps problems whose title contains f.Search (case-insensitive)
// and whose topic and difficulty match when those are set.
func Filter(problems []model.Problem, f model.ProblemFilter) []model.Problem {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Problem, 0, len(problems))
	for _, p := range problems {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		if f.Topic != "" && p.Topic != f.Topic {
			continue
		}
		if f.Difficulty != "" && p.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, p)
	}
	return out
}

// NextAvailableID returns the smallest positive id not used by problems.
func NextAvailableID(problems []model.Problem) int {
	used := make(map[int]struct{}, len(problems))
	for i := range problems {
		if id, ok := problems[i].SeqID(); ok {
			used[id] = struct{}{}
		}
	}
	next := 1
	for {
		if _, taken := used[next]; !taken {
			return next
		}
		next++
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Structural changes
// ────────────────────────────────────────────────────────────────────────────

// Create stores a new problem under the next available id and renumbers the collection.
func (s *ProblemService) Create(ctx context.Context, sess model.Session, in model.ProblemInput) (*MutationResult, error) {
	release, err := s.lock.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	p := problemFromInput(in)
	p.ID = model.IntPtr(NextAvailableID(all))
	p.CreatedBy = sess.Email

	docID, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	s.log.Info().Str("doc_id", docID).Int("id", *p.ID).Str("by", sess.Email).Msg("Problem created")

	return s.afterChange(ctx, "create", docID)
}

// Update edits the problem stored under docID. The requested id must be
// positive and not used by another problem; both are checked before any
// write. Keeping the id writes the fields in place; changing it rewrites the
// record under the same doc id and renumbers the collection.
func (s *ProblemService) Update(ctx context.Context, sess model.Session, docID string, in model.ProblemInput) (*MutationResult, error) {
	if in.ID < 1 {
		return nil, ErrInvalidID
	}

	release, err := s.lock.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	var current *model.Problem
	for i := range all {
		switch {
		case all[i].DocID == docID:
			current = &all[i]
		case all[i].HasSeqID(in.ID):
			return nil, ErrIDConflict
		}
	}
	if current == nil {
		return nil, ErrProblemNotFound
	}

	if current.HasSeqID(in.ID) {
		if err := s.store.UpdatePartial(ctx, docID, patchFromInput(in)); err != nil {
			return nil, s.writeErr(err)
		}
		s.log.Info().Str("doc_id", docID).Int("id", in.ID).Str("by", sess.Email).Msg("Problem updated")
		s.invalidate(ctx)

		updated := problemFromInput(in)
		updated.DocID = docID
		updated.CreatedBy = current.CreatedBy
		updated.CreatedAt = current.CreatedAt
		s.publish(ctx, "update", docID, len(all), 0)
		return &MutationResult{Problem: updated, Count: len(all)}, nil
	}

	p := problemFromInput(in)
	p.CreatedBy = current.CreatedBy
	if err := s.store.Replace(ctx, docID, p); err != nil {
		return nil, s.writeErr(err)
	}
	s.log.Info().Str("doc_id", docID).Int("id", in.ID).Str("by", sess.Email).Msg("Problem moved")

	return s.afterChange(ctx, "update", docID)
}

// Delete removes the problem and renumbers the rest.
func (s *ProblemService) Delete(ctx context.Context, sess model.Session, docID string) (*MutationResult, error) {
	release, err := s.lock.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.store.Delete(ctx, docID); err != nil {
		return nil, s.writeErr(err)
	}
	s.log.Info().Str("doc_id", docID).Str("by", sess.Email).Msg("Problem deleted")

	res, err := s.afterChange(ctx, "delete", docID)
	if res != nil {
		res.Problem = nil
	}
	return res, err
}

// Resequence renumbers the whole collection without another change.
func (s *ProblemService) Resequence(ctx context.Context) (*MutationResult, error) {
	release, err := s.lock.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.afterChange(ctx, "resequence", "")
}

// afterChange re-reads the collection, renumbers it, drops the cached
// snapshot and notifies subscribers. A failed renumbering returns the partial
// result together with the *sequencer.Error.
func (s *ProblemService) afterChange(ctx context.Context, reason, docID string) (*MutationResult, error) {
	defer s.invalidate(ctx)

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	seqRes, seqErr := s.seq.Resequence(ctx, all)
	res := &MutationResult{Count: len(seqRes.Records), Writes: seqRes.Writes}
	if docID != "" {
		for i := range seqRes.Records {
			if seqRes.Records[i].DocID == docID {
				p := seqRes.Records[i]
				res.Problem = &p
				break
			}
		}
	}

	if seqRes.Writes > 0 || seqErr == nil {
		s.publish(ctx, reason, docID, res.Count, res.Writes)
	}
	if seqErr != nil {
		return res, seqErr
	}
	return res, nil
}

func (s *ProblemService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate problem cache")
	}
}

func (s *ProblemService) publish(ctx context.Context, reason, docID string, count, writes int) {
	ev := model.ProblemEvent{
		Type:   model.ProblemEventChanged,
		Reason: reason,
		DocID:  docID,
		Count:  count,
		Writes: writes,
		At:     s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("reason", reason).Msg("Failed to publish problem event")
	}
}

func (s *ProblemService) writeErr(err error) error {
	if errors.Is(err, repository.ErrProblemNotFound) {
		return ErrProblemNotFound
	}
	return fmt.Errorf("%w: %w", ErrStoreWrite, err)
}

func problemFromInput(in model.ProblemInput) *model.Problem {
	p := &model.Problem{
		Title:       in.Title,
		Topic:       in.Topic,
		Description: in.Description,
		Difficulty:  in.Difficulty,
		Constraints: in.Constraints,
		Examples:    in.Examples,
		SampleCode:  in.SampleCode,
	}
	if in.ID > 0 {
		p.ID = model.IntPtr(in.ID)
	}
	return p
}

func patchFromInput(in model.ProblemInput) model.ProblemPatch {
	examples := in.Examples
	sampleCode := in.SampleCode
	return model.ProblemPatch{
		Title:       &in.Title,
		Topic:       &in.Topic,
		Description: &in.Description,
		Difficulty:  &in.Difficulty,
		Constraints: &in.Constraints,
		Examples:    &examples,
		SampleCode:  &sampleCode,
	}
}
