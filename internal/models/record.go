package models

import "time"

// KVRecord is a JSON value stored under a string key
type KVRecord struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the gorm table name
func (KVRecord) TableName() string {
	return "kv_records"
}
