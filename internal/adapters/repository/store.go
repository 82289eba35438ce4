// Package repository persists role profiles and candidate records.
package repository

import (
	"context"

	"github.com/okian/resumatch/internal/domain/model"
)

// RoleStore reads and writes role profiles. Roles are immutable once created.
type RoleStore interface {
	// CreateRole stores r and returns it with ID and CreatedAt assigned.
	CreateRole(ctx context.Context, r model.Role) (model.Role, error)
	// GetRole returns ErrRoleNotFound if id is unknown.
	GetRole(ctx context.Context, id int64) (model.Role, error)
	CountRoles(ctx context.Context) (int, error)
}

// CandidateStore holds candidate records. A record leaves the pending state
// at most once; both transitions are conditional on the record still being pending.
type CandidateStore interface {
	// CreatePending inserts a new pending record for roleID.
	CreatePending(ctx context.Context, roleID int64, filename string) (model.Candidate, error)
	// GetCandidate returns ErrCandidateNotFound if id is unknown.
	GetCandidate(ctx context.Context, id int64) (model.Candidate, error)
	// MarkAnalyzed writes text, vector and score in one step.
	// Returns ErrAlreadyAnalyzed if the record is no longer pending.
	MarkAnalyzed(ctx context.Context, id int64, a model.Analysis) error
	// MarkFailed records a terminal failure.
	// Returns ErrAlreadyAnalyzed if the record is no longer pending.
	MarkFailed(ctx context.Context, id int64, reason string) error
	// ListByRole returns up to limit records for a role: analyzed ones by score
	// desc, then the rest by id.
	ListByRole(ctx context.Context, roleID int64, limit int) ([]model.Candidate, error)
	// CountByStatus returns the number of records per status.
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
}

// Store combines both stores; every backend implements it.
type Store interface {
	RoleStore
	CandidateStore
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
