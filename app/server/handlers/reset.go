package handlers

import (
	"agrivision-core/app/server/constants"
	"agrivision-core/app/server/models"
	"agrivision-core/app/server/password"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type resetRequestBody struct {
	Email string `json:"email"`
}

// ResetPasswordRequest 签发一次性的重置令牌并邮寄链接。
// 邮箱未注册时返回同样的成功响应，避免撞库
func (a *App) ResetPasswordRequest(c echo.Context) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req resetRequestBody
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind json body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Email == "" {
		return a.er(c, http.StatusBadRequest)
	}

	uniformOK := func() error {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "If the account exists, a reset link has been sent",
		})
	}

	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "email = ?", req.Email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uniformOK()
		}
		a.l.Error("failed to find user", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 一次性令牌进 redis ，带过期时间，消费后删除
	token := uuid.NewString()
	cacheKey := fmt.Sprintf(constants.CacheKeyPasswordReset, token)
	if err := a.rdb.Set(rctx, cacheKey, user.ID, constants.CacheExpirePasswordReset).Err(); err != nil {
		a.l.Error("failed to store reset token", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", a.frontendURL, token)
	body := fmt.Sprintf(`<a href="%s">Recuperar contraseña</a>`, link)
	if err := a.mail.Send(rctx, "Password recovery", user.Email, body); err != nil {
		a.l.Error("failed to send reset mail", zap.String("email", user.Email), zap.Error(err))
		return a.er(c, http.StatusBadGateway)
	}

	return uniformOK()
}

type resetConfirmBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPasswordConfirm 消费重置令牌，换盐并重置密码
func (a *App) ResetPasswordConfirm(c echo.Context) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req resetConfirmBody
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind json body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Token == "" || req.NewPassword == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 查令牌
	cacheKey := fmt.Sprintf(constants.CacheKeyPasswordReset, req.Token)
	userID, err := a.rdb.Get(rctx, cacheKey).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return a.er(c, http.StatusUnauthorized)
		}
		a.l.Error("failed to load reset token", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "id = ?", uint(userID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusUnauthorized)
		}
		a.l.Error("failed to find user", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 改密码必须换盐
	salt, err := password.NewSalt()
	if err != nil {
		a.l.Error("failed to generate salt", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	hash, err := password.Derive(req.NewPassword, salt)
	if err != nil {
		a.l.Error("failed to derive password", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	if err := a.db.WithContext(rctx).Model(&user).Updates(map[string]interface{}{
		"salt":     salt,
		"password": hash,
	}).Error; err != nil {
		a.l.Error("failed to update password", zap.Uint("user", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 令牌只能用一次
	if err := a.rdb.Del(rctx, cacheKey).Err(); err != nil {
		a.l.Error("failed to delete reset token", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Password changed successfully",
	})
}
