package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/resumatch/internal/domain/model"
)

// runStoreContract exercises behavior every Store backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	req := "Go, SQL"
	role, err := s.CreateRole(ctx, model.Role{
		Title:        "Backend Engineer",
		Description:  "Build services",
		Requirements: &req,
		Embedding:    []float64{0.6, 0.8},
	})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if role.ID == 0 || role.CreatedAt.IsZero() {
		t.Fatalf("role was not assigned id/created_at: %+v", role)
	}

	got, err := s.GetRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("get role: %v", err)
	}
	if got.Title != role.Title || len(got.Embedding) != 2 || got.RequirementsText() != req {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := s.GetRole(ctx, role.ID+1000); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("expected ErrRoleNotFound, got %v", err)
	}
	if _, err := s.CreatePending(ctx, role.ID+1000, "x.pdf"); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("expected ErrRoleNotFound for unknown role, got %v", err)
	}

	c, err := s.CreatePending(ctx, role.ID, "resume.pdf")
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}
	if c.Status != model.StatusPending || c.MatchScore != nil || c.ResumeText != nil {
		t.Fatalf("new candidate is not pending: %+v", c)
	}

	if err := s.MarkAnalyzed(ctx, c.ID, model.Analysis{ResumeText: "hello", ResumeVector: []float64{1, 0}, MatchScore: 60}); err != nil {
		t.Fatalf("mark analyzed: %v", err)
	}
	analyzed, err := s.GetCandidate(ctx, c.ID)
	if err != nil {
		t.Fatalf("get candidate: %v", err)
	}
	if analyzed.Status != model.StatusAnalyzed || analyzed.ResumeText == nil || *analyzed.ResumeText != "hello" ||
		analyzed.MatchScore == nil || *analyzed.MatchScore != 60 || len(analyzed.ResumeVector) != 2 || analyzed.AnalyzedAt == nil {
		t.Errorf("analysis not persisted together: %+v", analyzed)
	}

	// Second write is rejected and leaves the record untouched.
	err = s.MarkAnalyzed(ctx, c.ID, model.Analysis{ResumeText: "other", MatchScore: 99})
	if !errors.Is(err, ErrAlreadyAnalyzed) {
		t.Errorf("expected ErrAlreadyAnalyzed, got %v", err)
	}
	if err := s.MarkFailed(ctx, c.ID, "late failure"); !errors.Is(err, ErrAlreadyAnalyzed) {
		t.Errorf("expected ErrAlreadyAnalyzed on MarkFailed, got %v", err)
	}
	again, _ := s.GetCandidate(ctx, c.ID)
	if *again.MatchScore != 60 || *again.ResumeText != "hello" {
		t.Errorf("record changed after rejected write: %+v", again)
	}

	failed, _ := s.CreatePending(ctx, role.ID, "broken.pdf")
	if err := s.MarkFailed(ctx, failed.ID, "document_format"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	f, _ := s.GetCandidate(ctx, failed.ID)
	if f.Status != model.StatusFailed || f.FailureReason == nil || *f.FailureReason != "document_format" || f.MatchScore != nil || f.ResumeText != nil {
		t.Errorf("failed record has wrong shape: %+v", f)
	}

	if err := s.MarkAnalyzed(ctx, 999_999, model.Analysis{}); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("expected ErrCandidateNotFound, got %v", err)
	}
	if _, err := s.GetCandidate(ctx, 999_999); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("expected ErrCandidateNotFound, got %v", err)
	}

	high, _ := s.CreatePending(ctx, role.ID, "high.pdf")
	_ = s.MarkAnalyzed(ctx, high.ID, model.Analysis{ResumeText: "x", ResumeVector: []float64{1, 1}, MatchScore: 90})
	pending, _ := s.CreatePending(ctx, role.ID, "pending.pdf")

	list, err := s.ListByRole(ctx, role.ID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []int64{high.ID, c.ID, failed.ID, pending.ID}
	if len(list) != len(wantOrder) {
		t.Fatalf("expected %d candidates, got %d", len(wantOrder), len(list))
	}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, list[i].ID)
		}
	}
	top, _ := s.ListByRole(ctx, role.ID, 1)
	if len(top) != 1 || top[0].ID != high.ID {
		t.Errorf("limit not applied: %+v", top)
	}
	if _, err := s.ListByRole(ctx, role.ID, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[model.StatusAnalyzed] < 2 || counts[model.StatusFailed] < 1 || counts[model.StatusPending] < 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
	if n, err := s.CountRoles(ctx); err != nil || n < 1 {
		t.Errorf("unexpected role count %d: %v", n, err)
	}
}

// runConcurrentMark checks that racing writers on one record produce exactly one winner.
func runConcurrentMark(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	role, err := s.CreateRole(ctx, model.Role{Title: "r", Description: "d"})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	c, err := s.CreatePending(ctx, role.ID, "dup.pdf")
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	const writers = 16
	var wins, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.MarkAnalyzed(ctx, c.ID, model.Analysis{ResumeText: "t", MatchScore: float64(i)})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrAlreadyAnalyzed):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 || rejected.Load() != writers-1 {
		t.Errorf("expected 1 winner and %d rejections, got %d/%d", writers-1, wins.Load(), rejected.Load())
	}
}
