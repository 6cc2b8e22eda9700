package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pagination"
)

type listNotificationsParams struct {
	UserName   string
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

// MarkReadResult distinguishes a missing row from an already-read one so the
// service can treat the latter as a no-op.
type MarkReadResult struct {
	Found   bool
	Updated bool
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, userName string, id uuid.UUID, readAt time.Time) (MarkReadResult, error)
	MarkAllRead(ctx context.Context, userName string, readAt time.Time) (int64, error)
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

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to create notification")
	}
	return nil
}

func (r *repository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_name = ?", params.UserName)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = pagination.LimitWithBuffer(pagination.DefaultLimit)
	}

	var rows []models.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeInternal, err, "failed to list notifications")
	}

	var next *pagination.Cursor
	if limit > 1 && len(rows) == limit {
		rows = rows[:len(rows)-1]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}

func (r *repository) MarkRead(ctx context.Context, userName string, id uuid.UUID, readAt time.Time) (MarkReadResult, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_name = ? AND read_at IS NULL", id, userName).
		Update("read_at", readAt)
	if res.Error != nil {
		return MarkReadResult{}, errors.Wrap(errors.CodeInternal, res.Error, "failed to mark notification read")
	}
	if res.RowsAffected > 0 {
		return MarkReadResult{Found: true, Updated: true}, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_name = ?", id, userName).
		Count(&count).Error
	if err != nil {
		return MarkReadResult{}, errors.Wrap(errors.CodeInternal, err, "failed to check notification")
	}
	return MarkReadResult{Found: count > 0}, nil
}

func (r *repository) MarkAllRead(ctx context.Context, userName string, readAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_name = ? AND read_at IS NULL", userName).
		Update("read_at", readAt)
	if res.Error != nil {
		return 0, errors.Wrap(errors.CodeInternal, res.Error, "failed to mark notifications read")
	}
	return res.RowsAffected, nil
}
