package models

import "time"

// 图像类型： NDVI 植被指数图或普通航拍图
const (
	ImageTypeNDVI   = "NDVI"
	ImageTypeAerial = "AERIAL"
)

type FarmImage struct {
	ID uint `gorm:"primaryKey"`

	FarmID uint `gorm:"column:farm_id;not null;index"` // 归属农场

	ImageURL   string    `gorm:"column:image_url;size:500;not null"`
	PublicID   string    `gorm:"column:public_id;size:255"` // 对象存储里的资源 ID ，用于删除
	ImageType  string    `gorm:"column:image_type;size:50;not null"`
	UploadDate time.Time `gorm:"column:upload_date"`
	FileName   string    `gorm:"column:file_name;size:255"`
	UploadedBy string    `gorm:"column:uploaded_by;size:100"` // 上传者邮箱，仅作归属展示
}
