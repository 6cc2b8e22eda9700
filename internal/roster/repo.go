package roster

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/errors"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByRole(ctx context.Context, role enums.WorkerRole) ([]models.RosterEntry, error)
	ListAll(ctx context.Context) ([]models.RosterEntry, error)
	ReplaceRole(ctx context.Context, role enums.WorkerRole, names []string) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) ListByRole(ctx context.Context, role enums.WorkerRole) ([]models.RosterEntry, error) {
	var entries []models.RosterEntry
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("position ASC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to list roster entries")
	}
	return entries, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.RosterEntry, error) {
	var entries []models.RosterEntry
	err := r.db.WithContext(ctx).
		Order("role ASC, position ASC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to list roster")
	}
	return entries, nil
}

// ReplaceRole rewrites the full ordered list for one role. Concurrent edits
// to the same role resolve last-write-wins at this boundary.
func (r *repository) ReplaceRole(ctx context.Context, role enums.WorkerRole, names []string) error {
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Delete(&models.RosterEntry{}).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to clear roster role")
	}
	if len(names) == 0 {
		return nil
	}
	entries := make([]models.RosterEntry, 0, len(names))
	for i, name := range names {
		entries = append(entries, models.RosterEntry{
			ID:       uuid.New(),
			Role:     role,
			Name:     name,
			Position: i,
		})
	}
	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to write roster role")
	}
	return nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RosterEntry{}).Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "failed to count roster entries")
	}
	return n, nil
}
