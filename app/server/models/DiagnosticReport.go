package models

import "time"

// DiagnosticReport 身兼两职：
// IsDiagnostic 为 true 时是管理员出具的诊断，为 false 时是农场主自己上传的报告
type DiagnosticReport struct {
	ID uint `gorm:"primaryKey"`

	UserID uint `gorm:"column:user_id;not null;index"` // 上传者
	FarmID uint `gorm:"column:farm_id;not null;index"` // 关联农场

	FileName     string    `gorm:"column:file_name;size:255;not null"`
	FileURL      string    `gorm:"column:file_url;size:500;not null"`
	PublicID     string    `gorm:"column:public_id;size:255"` // 对象存储里的资源 ID ，用于删除
	UploadDate   time.Time `gorm:"column:upload_date"`
	UploadedBy   string    `gorm:"column:uploaded_by;size:100"` // 上传者邮箱
	Description  string    `gorm:"column:description;size:1000"`
	IsDiagnostic bool      `gorm:"column:is_diagnostic;not null;default:false;index"`
}
