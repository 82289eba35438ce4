package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
)

// roleRow is the role_profiles table.
type roleRow struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	Title          string    `gorm:"type:varchar(255);not null"`
	Description    string    `gorm:"type:text;not null"`
	Requirements   *string   `gorm:"type:text"`
	Embedding      []float64 `gorm:"serializer:json;type:json"`
	EmbeddingModel string    `gorm:"type:varchar(128)"`
	CreatedAt      time.Time
}

func (roleRow) TableName() string { return "role_profiles" }

// candidateRow is the candidates table.
type candidateRow struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	RoleID        int64     `gorm:"index;not null"`
	Filename      string    `gorm:"type:varchar(255);not null"`
	Name          *string   `gorm:"type:varchar(255)"`
	Email         *string   `gorm:"type:varchar(255)"`
	ResumeText    *string   `gorm:"type:longtext"`
	ResumeVector  []float64 `gorm:"serializer:json;type:json"`
	MatchScore    *float64
	Status        string  `gorm:"type:varchar(16);index;not null"`
	FailureReason *string `gorm:"type:varchar(255)"`
	CreatedAt     time.Time
	AnalyzedAt    *time.Time
}

func (candidateRow) TableName() string { return "candidates" }

// SQLStore is a Store on MySQL through GORM.
type SQLStore struct {
	db           *gorm.DB
	log          logger.Logger
	autoMigrate  bool
	maxOpenConns int
}

// OpenMySQL connects to dsn and returns a ready SQLStore.
func OpenMySQL(ctx context.Context, dsn string, opts ...SQLOption) (*SQLStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open mysql: %w", ErrStore, err)
	}
	return NewSQLStore(ctx, db, opts...)
}

// NewSQLStore wraps an open *gorm.DB.
func NewSQLStore(ctx context.Context, db *gorm.DB, opts ...SQLOption) (*SQLStore, error) {
	s := &SQLStore{
		db:           db,
		log:          logger.Nop(),
		autoMigrate:  true,
		maxOpenConns: 20,
	}
	for _, opt := range opts {
		opt(s)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	sqlDB.SetMaxOpenConns(s.maxOpenConns)
	sqlDB.SetMaxIdleConns(s.maxOpenConns / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if s.autoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(&roleRow{}, &candidateRow{}); err != nil {
			return nil, fmt.Errorf("%w: migrate: %w", ErrStore, err)
		}
		s.log.Info(ctx, "schema migrated")
	}
	return s, nil
}

func (s *SQLStore) CreateRole(ctx context.Context, r model.Role) (model.Role, error) {
	row := roleRow{
		Title:          r.Title,
		Description:    r.Description,
		Requirements:   r.Requirements,
		Embedding:      r.Embedding,
		EmbeddingModel: r.EmbeddingModel,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Role{}, fmt.Errorf("%w: create role: %w", ErrStore, err)
	}
	return row.toModel(), nil
}

func (s *SQLStore) GetRole(ctx context.Context, id int64) (model.Role, error) {
	var row roleRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Role{}, fmt.Errorf("%w: %d", ErrRoleNotFound, id)
	}
	if err != nil {
		return model.Role{}, fmt.Errorf("%w: get role: %w", ErrStore, err)
	}
	return row.toModel(), nil
}

func (s *SQLStore) CountRoles(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&roleRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count roles: %w", ErrStore, err)
	}
	return int(n), nil
}

func (s *SQLStore) CreatePending(ctx context.Context, roleID int64, filename string) (model.Candidate, error) {
	var row candidateRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&roleRow{}).Where("id = ?", roleID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %d", ErrRoleNotFound, roleID)
		}
		row = candidateRow{
			RoleID:    roleID,
			Filename:  filename,
			Status:    string(model.StatusPending),
			CreatedAt: time.Now().UTC(),
		}
		return tx.Create(&row).Error
	})
	if errors.Is(err, ErrRoleNotFound) {
		return model.Candidate{}, err
	}
	if err != nil {
		return model.Candidate{}, fmt.Errorf("%w: create candidate: %w", ErrStore, err)
	}
	return row.toModel(), nil
}

func (s *SQLStore) GetCandidate(ctx context.Context, id int64) (model.Candidate, error) {
	var row candidateRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Candidate{}, fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
	}
	if err != nil {
		return model.Candidate{}, fmt.Errorf("%w: get candidate: %w", ErrStore, err)
	}
	return row.toModel(), nil
}

// MarkAnalyzed updates text, vector, score and status in one statement guarded
// by status = pending, inside a transaction.
func (s *SQLStore) MarkAnalyzed(ctx context.Context, id int64, a model.Analysis) error {
	now := time.Now().UTC()
	text, score := a.ResumeText, a.MatchScore
	update := candidateRow{
		ResumeText:   &text,
		ResumeVector: a.ResumeVector,
		MatchScore:   &score,
		Status:       string(model.StatusAnalyzed),
		AnalyzedAt:   &now,
	}
	return s.transition(ctx, id, update, "resume_text", "resume_vector", "match_score", "status", "analyzed_at")
}

func (s *SQLStore) MarkFailed(ctx context.Context, id int64, reason string) error {
	now := time.Now().UTC()
	update := candidateRow{
		Status:        string(model.StatusFailed),
		FailureReason: &reason,
		AnalyzedAt:    &now,
	}
	return s.transition(ctx, id, update, "status", "failure_reason", "analyzed_at")
}

func (s *SQLStore) transition(ctx context.Context, id int64, update candidateRow, columns ...string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&candidateRow{}).
			Where("id = ? AND status = ?", id, string(model.StatusPending)).
			Select(columns).
			Updates(&update)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		var n int64
		if err := tx.Model(&candidateRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
		}
		return fmt.Errorf("%w: %d", ErrAlreadyAnalyzed, id)
	})
	if err == nil || errors.Is(err, ErrCandidateNotFound) || errors.Is(err, ErrAlreadyAnalyzed) {
		return err
	}
	return fmt.Errorf("%w: update candidate %d: %w", ErrStore, id, err)
}

func (s *SQLStore) ListByRole(ctx context.Context, roleID int64, limit int) ([]model.Candidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	var rows []candidateRow
	err := s.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Order("match_score IS NULL, match_score DESC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list candidates: %w", ErrStore, err)
	}
	out := make([]model.Candidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *SQLStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	err := s.db.WithContext(ctx).Model(&candidateRow{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: count candidates: %w", ErrStore, err)
	}
	counts := map[model.Status]int{
		model.StatusPending:  0,
		model.StatusAnalyzed: 0,
		model.StatusFailed:   0,
	}
	for _, r := range rows {
		counts[model.Status(r.Status)] = r.N
	}
	return counts, nil
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r roleRow) toModel() model.Role {
	return model.Role{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Requirements:   r.Requirements,
		Embedding:      r.Embedding,
		EmbeddingModel: r.EmbeddingModel,
		CreatedAt:      r.CreatedAt,
	}
}

func (r candidateRow) toModel() model.Candidate {
	return model.Candidate{
		ID:            r.ID,
		RoleID:        r.RoleID,
		Filename:      r.Filename,
		Name:          r.Name,
		Email:         r.Email,
		ResumeText:    r.ResumeText,
		ResumeVector:  r.ResumeVector,
		MatchScore:    r.MatchScore,
		Status:        model.Status(r.Status),
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
		AnalyzedAt:    r.AnalyzedAt,
	}
}
