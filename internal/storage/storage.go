package storage

import (
	"fmt"
	"mime/multipart"

	"socialapp-backend/config"
)

// Storage 定义文件存储接口，上传成功后返回可访问的文件路径
type Storage interface {
	UploadFile(file *multipart.FileHeader, path string) (string, error)
}

// New 根据配置选择存储驱动
func New() (Storage, error) {
	switch config.AppConfig.StorageDriver {
	case "local":
		return NewLocalStorage(config.AppConfig.LocalStoragePath)
	case "s3":
		return NewS3Client(config.AppConfig.S3Region, config.AppConfig.S3Bucket)
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", config.AppConfig.StorageDriver)
	}
}
