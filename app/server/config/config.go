package config

import "time"

type Config struct {
	System struct {
		IsProd                bool   // 是否为生产环境
		Listen                string // 监听地址
		DBConnectionString    string // Postgres 数据库的连接字符串
		RedisConnectionString string // Redis 数据库的连接字符串
	}
	Security struct {
		SignatureSecretKey string        // 签名密钥，用于产生签名（例如 JWT ），更新会导致旧有会话失效，但不影响使用
		TokenTTL           time.Duration // 令牌有效期。默认沿用原系统的 200 小时，这个值明显是开发阶段的遗留，部署时务必缩短
	}
	Blob struct {
		Endpoint      string // S3 端点，留空则使用 AWS 默认；MinIO 等自建服务需要设定
		Region        string // S3 区域
		Bucket        string // 存储桶名称
		AccessKey     string // 访问密钥 ID ，留空则使用默认凭证链
		SecretKey     string // 访问密钥
		UsePathStyle  bool   // 是否使用 path-style 地址（MinIO 需要）
		PublicBaseURL string // 资源的公开访问地址前缀
	}
	Mail struct {
		Host     string // SMTP 服务器地址
		Port     int    // SMTP 端口
		Username string // SMTP 用户名
		Password string // SMTP 密码
		From     string // 发件人地址
	}
	Bootstrap struct {
		AdminEmail    string // 初始管理员邮箱，仅在数据库为空时使用
		AdminPassword string // 初始管理员密码
	}
	FrontendURL string // 前端地址，用于拼接密码重置链接
}
