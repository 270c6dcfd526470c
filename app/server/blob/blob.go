package blob

import "context"

// Asset 是一次成功上传的结果，元数据行里只保存这些内容
type Asset struct {
	SecureURL        string // 可持久引用的访问地址
	PublicID         string // 存储服务内部的资源 ID ，删除时使用
	OriginalFilename string // 上传时的原始文件名
}

// Store 抽象外部对象存储。上传和删除之间没有事务保证：
// 元数据写失败时由调用方尽力删除刚传上去的对象，错误照常上抛
type Store interface {
	Upload(ctx context.Context, data []byte, folder string, filename string) (*Asset, error)
	Destroy(ctx context.Context, publicID string) error
}
