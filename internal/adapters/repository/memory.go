package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/resumatch/internal/domain/model"
)

// MemoryStore is an in-process Store. Every read returns a copy.
type MemoryStore struct {
	mu         sync.RWMutex
	roles      map[int64]model.Role
	candidates map[int64]model.Candidate
	nextRole   int64
	nextCand   int64
	now        func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		roles:      make(map[int64]model.Role),
		candidates: make(map[int64]model.Candidate),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateRole(_ context.Context, r model.Role) (model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRole++
	r.ID = s.nextRole
	r.CreatedAt = s.now().UTC()
	r.Embedding = slices.Clone(r.Embedding)
	s.roles[r.ID] = r
	return cloneRole(r), nil
}

func (s *MemoryStore) GetRole(_ context.Context, id int64) (model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return model.Role{}, fmt.Errorf("%w: %d", ErrRoleNotFound, id)
	}
	return cloneRole(r), nil
}

func (s *MemoryStore) CountRoles(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roles), nil
}

func (s *MemoryStore) CreatePending(_ context.Context, roleID int64, filename string) (model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return model.Candidate{}, fmt.Errorf("%w: %d", ErrRoleNotFound, roleID)
	}
	s.nextCand++
	c := model.Candidate{
		ID:        s.nextCand,
		RoleID:    roleID,
		Filename:  filename,
		Status:    model.StatusPending,
		CreatedAt: s.now().UTC(),
	}
	s.candidates[c.ID] = c
	return c, nil
}

func (s *MemoryStore) GetCandidate(_ context.Context, id int64) (model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return model.Candidate{}, fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
	}
	return cloneCandidate(c), nil
}

func (s *MemoryStore) MarkAnalyzed(_ context.Context, id int64, a model.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.pendingLocked(id)
	if err != nil {
		return err
	}
	text, score, at := a.ResumeText, a.MatchScore, s.now().UTC()
	c.ResumeText = &text
	c.ResumeVector = slices.Clone(a.ResumeVector)
	c.MatchScore = &score
	c.Status = model.StatusAnalyzed
	c.AnalyzedAt = &at
	s.candidates[id] = c
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.pendingLocked(id)
	if err != nil {
		return err
	}
	at := s.now().UTC()
	c.Status = model.StatusFailed
	c.FailureReason = &reason
	c.AnalyzedAt = &at
	s.candidates[id] = c
	return nil
}

// pendingLocked must be called with s.mu held for writing.
func (s *MemoryStore) pendingLocked(id int64) (model.Candidate, error) {
	c, ok := s.candidates[id]
	if !ok {
		return model.Candidate{}, fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
	}
	if c.Status != model.StatusPending {
		return model.Candidate{}, fmt.Errorf("%w: %d is %s", ErrAlreadyAnalyzed, id, c.Status)
	}
	return c, nil
}

func (s *MemoryStore) ListByRole(_ context.Context, roleID int64, limit int) ([]model.Candidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	out := make([]model.Candidate, 0)
	for _, c := range s.candidates {
		if c.RoleID == roleID {
			out = append(out, cloneCandidate(c))
		}
	}
	s.mu.RUnlock()

	SortRanked(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[model.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[model.Status]int{
		model.StatusPending:  0,
		model.StatusAnalyzed: 0,
		model.StatusFailed:   0,
	}
	for _, c := range s.candidates {
		counts[c.Status]++
	}
	return counts, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// SortRanked orders candidates for display: scored records first by score
// desc, then everything else; ties break on id.
func SortRanked(cs []model.Candidate) {
	slices.SortStableFunc(cs, func(a, b model.Candidate) int {
		switch {
		case a.MatchScore != nil && b.MatchScore == nil:
			return -1
		case a.MatchScore == nil && b.MatchScore != nil:
			return 1
		case a.MatchScore != nil && *a.MatchScore != *b.MatchScore:
			if *a.MatchScore > *b.MatchScore {
				return -1
			}
			return 1
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func cloneRole(r model.Role) model.Role {
	r.Embedding = slices.Clone(r.Embedding)
	return r
}

func cloneCandidate(c model.Candidate) model.Candidate {
	c.ResumeVector = slices.Clone(c.ResumeVector)
	return c
}
