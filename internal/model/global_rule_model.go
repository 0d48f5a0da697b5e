package model

import "time"

type GlobalRule struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	Rule      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"default:now();not null"`
}

func (GlobalRule) TableName() string {
	return "global_settings"
}
