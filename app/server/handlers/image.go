package handlers

import (
	"agrivision-core/app/server/constants"
	"agrivision-core/app/server/models"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type imageInfo struct {
	ID         uint      `json:"id"`
	FarmID     uint      `json:"farm_id"`
	ImageURL   string    `json:"image_url"`
	ImageType  string    `json:"image_type"`
	UploadDate time.Time `json:"upload_date"`
	FileName   string    `json:"file_name"`
	UploadedBy string    `json:"uploaded_by"`
}

func serializeImage(img *models.FarmImage) imageInfo {
	return imageInfo{
		ID:         img.ID,
		FarmID:     img.FarmID,
		ImageURL:   img.ImageURL,
		ImageType:  img.ImageType,
		UploadDate: img.UploadDate,
		FileName:   img.FileName,
		UploadedBy: img.UploadedBy,
	}
}

func (a *App) ImageUpload(c echo.Context) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, false)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// multipart 表单：farm_id 、image_type 和文件
	farmID, err := strconv.ParseUint(c.FormValue("farm_id"), 10, 64)
	if err != nil {
		return a.er(c, http.StatusBadRequest)
	}

	imageType := c.FormValue("image_type")
	if imageType != models.ImageTypeNDVI && imageType != models.ImageTypeAerial {
		return a.er(c, http.StatusBadRequest)
	}

	data, filename, err := readFormFile(c, "file")
	if err != nil {
		a.l.Error("failed to read image file", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if !isImageData(data) {
		return a.er(c, http.StatusBadRequest)
	}

	// 先确认农场存在（404），再做归属检查（403），顺序不能反
	var farm models.Farm
	if err := a.db.WithContext(rctx).First(&farm, "id = ?", uint(farmID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		}
		a.l.Error("failed to find farm", zap.Uint64("id", farmID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if farm.UserID != user.ID && !user.Role.IsAdmin() {
		return a.er(c, http.StatusForbidden)
	}

	// 两段式：先传对象存储，再写元数据行
	asset, err := a.blob.Upload(rctx, data, constants.BlobFolderImages, filename)
	if err != nil {
		a.l.Error("failed to upload image", zap.Error(err))
		return a.er(c, http.StatusBadGateway)
	}

	img := models.FarmImage{
		FarmID:     farm.ID,
		ImageURL:   asset.SecureURL,
		PublicID:   asset.PublicID,
		ImageType:  imageType,
		UploadDate: time.Now().UTC(),
		FileName:   asset.OriginalFilename,
		UploadedBy: user.Email,
	}

	if err := a.db.WithContext(rctx).Create(&img).Error; err != nil {
		// 元数据写失败时尽力删掉刚上传的对象，错误照常返回
		if derr := a.blob.Destroy(rctx, asset.PublicID); derr != nil {
			a.l.Error("failed to clean up image after create failure", zap.Error(derr))
		}
		a.l.Error("failed to create image record", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, serializeImage(&img))
}

func (a *App) UserImages(c echo.Context) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, false)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 跨当前用户的全部农场取图
	var images []models.FarmImage
	if err := a.db.WithContext(rctx).
		Where("farm_id IN (?)", a.db.Model(&models.Farm{}).Select("id").Where("user_id = ?", user.ID)).
		Order("id ASC").
		Find(&images).Error; err != nil {
		a.l.Error("failed to list user images", zap.Uint("user", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resImages := []imageInfo{}
	for i := range images {
		resImages = append(resImages, serializeImage(&images[i]))
	}

	return c.JSON(http.StatusOK, resImages)
}

func (a *App) ImageDelete(c echo.Context) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, false)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return a.er(c, http.StatusBadRequest)
	}

	// 按归属过滤：图像必须挂在当前用户的农场之下，否则一律 404
	var img models.FarmImage
	if err := a.db.WithContext(rctx).
		Where("id = ? AND farm_id IN (?)", uint(id), a.db.Model(&models.Farm{}).Select("id").Where("user_id = ?", user.ID)).
		First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		}
		a.l.Error("failed to find image", zap.Uint64("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	if err := a.db.WithContext(rctx).Delete(&img).Error; err != nil {
		a.l.Error("failed to delete image", zap.Uint("id", img.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 对象存储尽力清理
	if img.PublicID != "" {
		if err := a.blob.Destroy(rctx, img.PublicID); err != nil {
			a.l.Error("failed to destroy image blob", zap.String("publicID", img.PublicID), zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Image deleted successfully",
	})
}
