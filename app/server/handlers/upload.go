package handlers

import (
	"agrivision-core/app/server/constants"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

var errFileTooLarge = errors.New("file exceeds upload size limit")

// readFormFile 读取 multipart 表单里的一个文件。文件缺失时原样返回 http.ErrMissingFile
func readFormFile(c echo.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}

	if fh.Size > constants.MaxUploadBytes {
		return nil, "", errFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, constants.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > constants.MaxUploadBytes {
		return nil, "", errFileTooLarge
	}

	return data, fh.Filename, nil
}

// isImageData 依据内容判断是否是图像文件，不信任扩展名
func isImageData(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}

// isAllowedDocument 校验文档扩展名白名单
func isAllowedDocument(filename string) bool {
	return constants.DocumentExtensions[strings.ToLower(path.Ext(filename))]
}
