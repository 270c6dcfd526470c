package blob

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "agrivision-core/app/server/config"
)

type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewS3Store(ctx context.Context, cfg *appconfig.Config) (*S3Store, error) {
	var (
		awsCfg aws.Config
		err    error
	)

	if cfg.Blob.AccessKey != "" && cfg.Blob.SecretKey != "" {
		// 静态凭证（MinIO 或显式指定密钥的 AWS）
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Blob.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.Blob.AccessKey,
				cfg.Blob.SecretKey,
				"",
			)),
		)
	} else {
		// 默认凭证链（IAM 角色、环境变量等）
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Blob.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Blob.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Blob.Endpoint)
		}
		if cfg.Blob.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Blob.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.Blob.PublicBaseURL, "/"),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, data []byte, folder string, filename string) (*Asset, error) {
	key := objectKey(folder, filename)

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(filename, data)),
	}); err != nil {
		return nil, fmt.Errorf("failed to upload to s3: %w", err)
	}

	return &Asset{
		SecureURL:        s.publicBaseURL + "/" + key,
		PublicID:         key,
		OriginalFilename: filename,
	}, nil
}

func (s *S3Store) Destroy(ctx context.Context, publicID string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	}); err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}

	return nil
}

// objectKey 用随机 UUID 避免同名文件互相覆盖，原始文件名只保留扩展名
func objectKey(folder string, filename string) string {
	return path.Join(folder, uuid.NewString()+strings.ToLower(path.Ext(filename)))
}

func contentTypeFor(filename string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); ct != "" {
		return ct
	}

	return http.DetectContentType(data)
}
