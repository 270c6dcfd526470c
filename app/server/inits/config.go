package inits

import (
	"agrivision-core/app/server/config"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func Config() (cfg *config.Config, err error) {
	// 尝试加载 .env ，文件不存在时直接使用环境变量
	_ = godotenv.Load()

	cfg = &config.Config{}

	// 手动配置映射，如果这里有什么自动映射工具就好了， viper 好像处理这种基于环境变量的配置也不是很方便
	{
		mode, exist := os.LookupEnv("MODE")
		cfg.System.IsProd = exist && strings.HasPrefix(strings.ToLower(mode), "p")
	}

	if listen, exist := os.LookupEnv("LISTEN"); !exist {
		cfg.System.Listen = ":1323" // 默认监听地址
	} else {
		cfg.System.Listen = listen
	}

	if dbconn, exist := os.LookupEnv("DB_CONN"); !exist {
		return nil, fmt.Errorf("DB_CONN environment variable not set")
	} else {
		cfg.System.DBConnectionString = dbconn
	}

	if redisconn, exist := os.LookupEnv("REDIS_CONN"); !exist {
		return nil, fmt.Errorf("REDIS_CONN environment variable not set")
	} else {
		cfg.System.RedisConnectionString = redisconn
	}

	if sigsk, exist := os.LookupEnv("SIGNATURE_SECRET_KEY"); !exist {
		return nil, fmt.Errorf("SIGNATURE_SECRET_KEY environment variable not set")
	} else {
		cfg.Security.SignatureSecretKey = sigsk
	}

	if ttl, exist := os.LookupEnv("TOKEN_TTL"); !exist {
		// 原系统的默认值，大概率是开发阶段随手设的，保留默认但允许覆盖
		cfg.Security.TokenTTL = 200 * time.Hour
	} else if cfg.Security.TokenTTL, err = time.ParseDuration(ttl); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	// 对象存储
	cfg.Blob.Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.Blob.AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.Blob.SecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.Blob.UsePathStyle = os.Getenv("S3_USE_PATH_STYLE") == "true"

	if region, exist := os.LookupEnv("S3_REGION"); !exist {
		cfg.Blob.Region = "us-east-1"
	} else {
		cfg.Blob.Region = region
	}

	if bucket, exist := os.LookupEnv("S3_BUCKET"); !exist {
		return nil, fmt.Errorf("S3_BUCKET environment variable not set")
	} else {
		cfg.Blob.Bucket = bucket
	}

	if baseURL, exist := os.LookupEnv("S3_PUBLIC_BASE_URL"); !exist {
		cfg.Blob.PublicBaseURL = strings.TrimSuffix(cfg.Blob.Endpoint, "/") + "/" + cfg.Blob.Bucket
	} else {
		cfg.Blob.PublicBaseURL = strings.TrimSuffix(baseURL, "/")
	}

	// 邮件
	cfg.Mail.Host = os.Getenv("SMTP_ADDRESS")
	cfg.Mail.Username = os.Getenv("EMAIL_ADDRESS")
	cfg.Mail.Password = os.Getenv("EMAIL_PASSWORD")

	if port, exist := os.LookupEnv("SMTP_PORT"); !exist {
		cfg.Mail.Port = 465
	} else if cfg.Mail.Port, err = strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	if from, exist := os.LookupEnv("EMAIL_FROM"); !exist {
		cfg.Mail.From = cfg.Mail.Username
	} else {
		cfg.Mail.From = from
	}

	// 初始管理员
	if adminEmail, exist := os.LookupEnv("ADMIN_EMAIL"); !exist {
		cfg.Bootstrap.AdminEmail = "admin@agrivision.local"
	} else {
		cfg.Bootstrap.AdminEmail = adminEmail
	}

	if adminPassword, exist := os.LookupEnv("ADMIN_PASSWORD"); !exist {
		cfg.Bootstrap.AdminPassword = "admin123"
	} else {
		cfg.Bootstrap.AdminPassword = adminPassword
	}

	if frontendURL, exist := os.LookupEnv("FRONTEND_URL"); !exist {
		cfg.FrontendURL = "http://localhost:3000"
	} else {
		cfg.FrontendURL = strings.TrimSuffix(frontendURL, "/")
	}

	return cfg, nil
}
