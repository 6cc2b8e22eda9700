package items

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pagination"
)

// ListParams filters and pages the item listing.
type ListParams struct {
	Status     *enums.ClothStatus
	AssignedTo *string
	Type       *enums.ClothType
	BillNumber *string
	Limit      int
	Cursor     *pagination.Cursor
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.ClothItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ClothItem, error)
	// List returns one page plus the cursor for the next, nil on the last page.
	List(ctx context.Context, params ListParams) ([]models.ClothItem, *pagination.Cursor, error)
	// UpdateStatusAssignee moves the item from fromStatus in one compare-and-
	// swap statement. Returns the affected row count; zero means the item
	// moved underneath the caller.
	UpdateStatusAssignee(ctx context.Context, id uuid.UUID, fromStatus, toStatus enums.ClothStatus, assignee *string) (int64, error)
	// UpdateAssignee rewrites the assignee while the status stays at
	// expectStatus, same CAS shape as UpdateStatusAssignee.
	UpdateAssignee(ctx context.Context, id uuid.UUID, expectStatus enums.ClothStatus, assignee string) (int64, error)
	NextSeq(ctx context.Context, itemID uuid.UUID) (int, error)
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
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

func (r *repository) Create(ctx context.Context, item *models.ClothItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to create cloth item")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ClothItem, error) {
	var item models.ClothItem
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		First(&item, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "cloth item not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to load cloth item")
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.ClothItem, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.ClothItem{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *params.AssignedTo)
	}
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}
	if params.BillNumber != nil {
		query = query.Where("bill_number = ?", *params.BillNumber)
	}
	if params.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var out []models.ClothItem
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&out).Error
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeInternal, err, "failed to list cloth items")
	}

	var next *pagination.Cursor
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return out, next, nil
}

func (r *repository) UpdateStatusAssignee(ctx context.Context, id uuid.UUID, fromStatus, toStatus enums.ClothStatus, assignee *string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ClothItem{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]any{
			"status":      toStatus,
			"assigned_to": assignee,
		})
	if res.Error != nil {
		return 0, errors.Wrap(errors.CodeInternal, res.Error, "failed to update cloth item status")
	}
	return res.RowsAffected, nil
}

func (r *repository) UpdateAssignee(ctx context.Context, id uuid.UUID, expectStatus enums.ClothStatus, assignee string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ClothItem{}).
		Where("id = ? AND status = ?", id, expectStatus).
		Update("assigned_to", assignee)
	if res.Error != nil {
		return 0, errors.Wrap(errors.CodeInternal, res.Error, "failed to update cloth item assignee")
	}
	return res.RowsAffected, nil
}

// NextSeq computes the next history sequence number for the item. Callers
// run it inside the same transaction as AppendHistory; the UNIQUE(item_id,
// seq) constraint rejects races that slip through.
func (r *repository) NextSeq(ctx context.Context, itemID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.HistoryEntry{}).
		Where("item_id = ?", itemID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "failed to compute history sequence")
	}
	return max + 1, nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_history_item_seq") {
			return errors.Wrap(errors.CodeConflict, err, "history entry already recorded for this step")
		}
		return errors.Wrap(errors.CodeInternal, err, "failed to append history entry")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Select("Images", "History").
		Delete(&models.ClothItem{ID: id})
	if res.Error != nil {
		return 0, errors.Wrap(errors.CodeInternal, res.Error, "failed to delete cloth item")
	}
	return res.RowsAffected, nil
}
