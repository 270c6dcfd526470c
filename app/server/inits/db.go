package inits

import (
	"agrivision-core/app/server/models"
	"agrivision-core/app/server/password"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func DB(conn string, adminEmail string, adminPassword string) (db *gorm.DB, err error) {
	// 打开连接
	if db, err = gorm.Open(postgres.Open(conn), &gorm.Config{
		TranslateError: true, // 把方言错误翻译成 gorm.ErrDuplicatedKey 之类的通用错误
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 迁移
	if err = Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 初始化启动数据
	if err = initData(db, adminEmail, adminPassword); err != nil {
		return nil, fmt.Errorf("failed to init data into database: %w", err)
	}

	// 返回
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Farm{},
		&models.FarmImage{},
		&models.DiagnosticReport{},
	)
}

func initData(db *gorm.DB, adminEmail string, adminPassword string) (err error) {
	// 查询现有记录数量
	var counter int64

	// 初始化管理员，仅在完全没有用户时执行一次
	if err = db.Model(&models.User{}).Count(&counter).Error; err != nil {
		return fmt.Errorf("failed to get user count: %w", err)
	} else if counter == 0 {
		// 创建盐和密码散列
		salt, err := password.NewSalt()
		if err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}

		hash, err := password.Derive(adminPassword, salt)
		if err != nil {
			return fmt.Errorf("failed to derive password: %w", err)
		}

		// 插入记录
		if err = db.Create(&models.User{
			FullName:    "Administrator",
			Email:       adminEmail,
			PhoneNumber: "000000000",
			Password:    hash,
			Salt:        salt,
			Role:        models.RoleAdmin,
		}).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
	}

	// 已有数据或全部导入成功
	return nil
}
