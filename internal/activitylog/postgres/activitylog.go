package postgres

import (
	"context"

	"github.com/frahmantamala/role-permission-api/internal/activitylog"
	activityDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/activitylog"
	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) activitylog.RepositoryAPI {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, log *activityDatamodel.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ActivityLogRepository) List(ctx context.Context, filter activitylog.Filter) ([]*activityDatamodel.ActivityLog, error) {
	query := r.db.WithContext(ctx).Model(&activityDatamodel.ActivityLog{})

	if filter.LogName != "" {
		query = query.Where("log_name = ?", filter.LogName)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at < ?", filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var logs []*activityDatamodel.ActivityLog
	err := query.Order("created_at DESC").Order("id DESC").Find(&logs).Error
	return logs, err
}
