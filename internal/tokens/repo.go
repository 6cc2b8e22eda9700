package tokens

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/errors"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, userName, token string) error
	TokensFor(ctx context.Context, userName string) ([]string, error)
	DeleteForUser(ctx context.Context, userName string) (int64, error)
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

// Upsert adds the token to the user's set. Re-registering an existing pair
// is a no-op, the unique index absorbs it.
func (r *repository) Upsert(ctx context.Context, userName, token string) error {
	record := models.DeviceToken{
		ID:       uuid.New(),
		UserName: userName,
		Token:    token,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_name"}, {Name: "token"}},
			DoNothing: true,
		}).
		Create(&record).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to register device token")
	}
	return nil
}

func (r *repository) TokensFor(ctx context.Context, userName string) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&models.DeviceToken{}).
		Where("user_name = ?", userName).
		Order("created_at ASC").
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to load device tokens")
	}
	return tokens, nil
}

func (r *repository) DeleteForUser(ctx context.Context, userName string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_name = ?", userName).
		Delete(&models.DeviceToken{})
	if res.Error != nil {
		return 0, errors.Wrap(errors.CodeInternal, res.Error, "failed to delete device tokens")
	}
	return res.RowsAffected, nil
}
