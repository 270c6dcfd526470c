package handlers

import (
	"agrivision-core/app/server/blob"
	"agrivision-core/app/server/jwt"
	"agrivision-core/app/server/mailer"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	l    *zap.Logger   // 日志
	db   *gorm.DB      // 数据库
	rdb  *redis.Client // Redis ，存放一次性的密码重置令牌
	jwt  *jwt.JWT      // JWT ，用于无状态验证
	blob blob.Store    // 对象存储
	mail mailer.Mailer // 外发邮件

	tokenTTL    time.Duration // 会话令牌有效期
	frontendURL string        // 用于拼接密码重置链接
}

func NewApp(l *zap.Logger, db *gorm.DB, rdb *redis.Client, j *jwt.JWT, blobStore blob.Store, mail mailer.Mailer, tokenTTL time.Duration, frontendURL string) *App {
	return &App{
		l:           l,
		db:          db,
		rdb:         rdb,
		jwt:         j,
		blob:        blobStore,
		mail:        mail,
		tokenTTL:    tokenTTL,
		frontendURL: frontendURL,
	}
}
