package handlers

import (
	"agrivision-core/app/server/constants"
	"agrivision-core/app/server/models"
	"agrivision-core/app/server/password"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type registerResponse struct {
	Message string `json:"message"`
}

func (a *App) Register(c echo.Context) error {
	rctx := c.Request().Context()

	// multipart 表单：基础字段 + 可选头像文件
	fullName := c.FormValue("full_name")
	email := c.FormValue("email")
	phoneNumber := c.FormValue("phone_number")
	plainPassword := c.FormValue("password")

	// 必填字段缺一不可
	if fullName == "" || email == "" || phoneNumber == "" || plainPassword == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 邮箱全局唯一
	var existing int64
	if err := a.db.WithContext(rctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		a.l.Error("failed to check existing user", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	} else if existing > 0 {
		return a.er(c, http.StatusConflict)
	}

	// 可选头像，先传对象存储，只保留返回的地址
	var avatarURL, avatarPublicID string
	if data, filename, err := readFormFile(c, "avatar"); err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			a.l.Error("failed to read avatar file", zap.Error(err))
			return a.er(c, http.StatusBadRequest)
		}
	} else {
		if !isImageData(data) {
			return a.er(c, http.StatusBadRequest)
		}

		asset, err := a.blob.Upload(rctx, data, constants.BlobFolderAvatars, filename)
		if err != nil {
			a.l.Error("failed to upload avatar", zap.Error(err))
			return a.er(c, http.StatusBadGateway)
		}
		avatarURL = asset.SecureURL
		avatarPublicID = asset.PublicID
	}

	// 先生成盐，再派生密码散列
	salt, err := password.NewSalt()
	if err != nil {
		a.l.Error("failed to generate salt", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	hash, err := password.Derive(plainPassword, salt)
	if err != nil {
		a.l.Error("failed to derive password", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 创建用户，角色固定为普通用户
	user := models.User{
		FullName:    fullName,
		Email:       email,
		PhoneNumber: phoneNumber,
		Avatar:      avatarURL,
		PublicID:    avatarPublicID,
		Password:    hash,
		Salt:        salt,
		Role:        models.RoleUser,
	}

	if err := a.db.WithContext(rctx).Create(&user).Error; err != nil {
		// 元数据写失败时尽力清掉刚上传的头像，错误照常返回
		if avatarPublicID != "" {
			if derr := a.blob.Destroy(rctx, avatarPublicID); derr != nil {
				a.l.Error("failed to clean up avatar after create failure", zap.Error(derr))
			}
		}

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return a.er(c, http.StatusConflict)
		}
		a.l.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 不返回任何机密材料
	return c.JSON(http.StatusCreated, &registerResponse{
		Message: "User created successfully",
	})
}
