package constants

// 对象存储里的目录划分
const (
	BlobFolderAvatars = "avatars"
	BlobFolderImages  = "farm-images"
	BlobFolderReports = "reports"
)

// DocumentExtensions 是报告/诊断文档的扩展名白名单
var DocumentExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
}

// 单个上传文件的大小上限
const MaxUploadBytes = 20 * 1024 * 1024
