package models

import "time"

// Role 是封闭的角色枚举，当前只有普通用户和管理员两种
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

type User struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// 基础信息
	FullName    string `gorm:"column:full_name;size:50;not null"`
	Email       string `gorm:"column:email;size:120;uniqueIndex;not null"` // 邮箱，全局唯一
	PhoneNumber string `gorm:"column:phone_number;size:30;not null"`

	// 头像（外部对象存储）
	Avatar   string `gorm:"column:avatar;size:500"`    // 头像地址
	PublicID string `gorm:"column:public_id;size:255"` // 对象存储里的资源 ID ，用于删除

	// 登录与授权认证相关
	Password string `gorm:"column:password;size:200;not null"`               // 密码散列，绝不存储明文
	Salt     string `gorm:"column:salt;size:80;not null"`                    // 每用户独立的随机盐， base64 编码的 32 字节
	Role     Role   `gorm:"column:role;size:10;not null;default:user;index"` // 角色：管理员可以访问聚合视图并上传诊断

	// 关联
	Farms   []Farm             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Reports []DiagnosticReport `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
