package persistence

import (
	"time"
)

// KeyValueModel represents the kv_entries table backing the durable tier
type KeyValueModel struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:191"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KeyValueModel) TableName() string {
	return "kv_entries"
}
