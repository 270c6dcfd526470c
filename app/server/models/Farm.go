package models

import "time"

type Farm struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// 归属用户。复合唯一索引：同一个用户不能注册两个同名或同址的农场，不同用户之间互不影响
	UserID       uint   `gorm:"column:user_id;not null;uniqueIndex:idx_farm_owner_name;uniqueIndex:idx_farm_owner_location"`
	FarmName     string `gorm:"column:farm_name;size:100;not null;uniqueIndex:idx_farm_owner_name"`
	FarmLocation string `gorm:"column:farm_location;size:100;not null;uniqueIndex:idx_farm_owner_location"`

	// 关联
	Images  []FarmImage        `gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE"`
	Reports []DiagnosticReport `gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE"`
}
