package handlers

import (
	"agrivision-core/app/server/models"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func (a *App) authUser(c echo.Context, requireAdminRole bool) (*models.User, error, int) {
	// 提取 token
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("missing auth token"), http.StatusUnauthorized
	}

	splits := strings.Split(authHeader, " ")
	if len(splits) != 2 {
		return nil, fmt.Errorf("invalid auth header: %s", authHeader), http.StatusUnauthorized
	}

	if strings.ToLower(splits[0]) != "bearer" {
		return nil, fmt.Errorf("unknown auth method: %s", splits[0]), http.StatusUnauthorized
	}

	// 验证 token
	jwtUser, err := a.jwt.ParseUser(splits[1])
	if err != nil {
		// 无效的 token
		return nil, fmt.Errorf("failed to parse token: %w", err), http.StatusUnauthorized
	}

	// 从数据库解析当前用户。角色以数据库为准：令牌里的声明可能过期（例如签发后刚被提升为管理员）
	var user models.User
	if err := a.db.WithContext(c.Request().Context()).First(&user, "id = ?", jwtUser.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("token subject no longer exists"), http.StatusUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err), http.StatusInternalServerError
	}

	// 验证权限
	if requireAdminRole && !user.Role.IsAdmin() {
		return nil, fmt.Errorf("requires admin role"), http.StatusForbidden
	}

	return &user, nil, http.StatusOK
}
