package handlers

import (
	"github.com/labstack/echo/v4"
	"net/http"
)

type errorMessage struct {
	Message string `json:"message"`
}

// er 返回统一格式的错误响应。凭证相关的失败共用同一个状态文本，避免暴露邮箱是否已注册
func (a *App) er(c echo.Context, statusCode int) error {
	return c.JSON(statusCode, &errorMessage{
		Message: http.StatusText(statusCode),
	})
}
