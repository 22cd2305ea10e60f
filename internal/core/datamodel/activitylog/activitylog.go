package activitylog

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityLog struct {
	ID          int64             `gorm:"primaryKey"`
	LogName     string            `gorm:"column:log_name;size:255;index"`
	Description string            `gorm:"column:description;not null"`
	Event       string            `gorm:"column:event;size:255"`
	CauserID    *string           `gorm:"column:causer_id;size:255"`
	Properties  datatypes.JSONMap `gorm:"column:properties"`
	CreatedAt   time.Time         `gorm:"column:created_at;index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ActivityLog{})
}
