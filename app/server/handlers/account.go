package handlers

import (
	"agrivision-core/app/server/models"
	"agrivision-core/app/server/password"
	"agrivision-core/app/server/utils"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type farmInfo struct {
	ID           uint   `json:"id"`
	FarmName     string `json:"farm_name"`
	FarmLocation string `json:"farm_location"`
	UserID       uint   `json:"user_id"`
}

type profileResponse struct {
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phone_number"`
	Avatar      *string    `json:"avatar,omitempty"`
	Farms       []farmInfo `json:"farms"`
}

func serializeFarm(farm *models.Farm) farmInfo {
	return farmInfo{
		ID:           farm.ID,
		FarmName:     farm.FarmName,
		FarmLocation: farm.FarmLocation,
		UserID:       farm.UserID,
	}
}

func (a *App) Profile(c echo.Context) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, false)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 名下所有农场
	var farms []models.Farm
	if err := a.db.WithContext(rctx).Order("id ASC").Find(&farms, "user_id = ?", user.ID).Error; err != nil {
		a.l.Error("failed to get farms", zap.Uint("user", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resFarms := []farmInfo{}
	for i := range farms {
		resFarms = append(resFarms, serializeFarm(&farms[i]))
	}

	res := profileResponse{
		FullName:    user.FullName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Farms:       resFarms,
	}
	if user.Avatar != "" {
		res.Avatar = utils.P(user.Avatar)
	}

	return c.JSON(http.StatusOK, &res)
}

func (a *App) Dashboard(c echo.Context) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, false)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Welcome back, " + user.FullName,
	})
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (a *App) UpdatePassword(c echo.Context) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, false)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind json body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.NewPassword == "" {
		return a.er(c, http.StatusBadRequest)
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

	if err := a.db.WithContext(rctx).Model(user).Updates(map[string]interface{}{
		"salt":     salt,
		"password": hash,
	}).Error; err != nil {
		a.l.Error("failed to update password", zap.Uint("user", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Password changed successfully",
	})
}
