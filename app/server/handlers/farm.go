package handlers

import (
	"agrivision-core/app/server/models"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type farmCreateRequest struct {
	FarmName     string `json:"farm_name"`
	FarmLocation string `json:"farm_location"`
}

func (a *App) FarmCreate(c echo.Context) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, false)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req farmCreateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind json body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.FarmName == "" || req.FarmLocation == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 唯一性按当前用户限定：同名或同址即冲突，不同用户之间互不影响
	var existing int64
	if err := a.db.WithContext(rctx).Model(&models.Farm{}).
		Where("user_id = ? AND (farm_name = ? OR farm_location = ?)", user.ID, req.FarmName, req.FarmLocation).
		Count(&existing).Error; err != nil {
		a.l.Error("failed to check existing farm", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	} else if existing > 0 {
		return a.er(c, http.StatusConflict)
	}

	farm := models.Farm{
		UserID:       user.ID,
		FarmName:     req.FarmName,
		FarmLocation: req.FarmLocation,
	}

	if err := a.db.WithContext(rctx).Create(&farm).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return a.er(c, http.StatusConflict)
		}
		a.l.Error("failed to create farm", zap.Any("farm", farm), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, serializeFarm(&farm))
}

func (a *App) FarmDelete(c echo.Context) error {
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

	// 按归属过滤查找：不是自己的农场和不存在的农场一样返回 404 ，不暴露资源是否存在
	var farm models.Farm
	if err := a.db.WithContext(rctx).First(&farm, "id = ? AND user_id = ?", uint(id), user.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		}
		a.l.Error("failed to find farm", zap.Uint64("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 先取下属资源的对象存储 ID ，行删完之后尽力清理
	var images []models.FarmImage
	if err := a.db.WithContext(rctx).Find(&images, "farm_id = ?", farm.ID).Error; err != nil {
		a.l.Error("failed to list farm images", zap.Uint("farm", farm.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	var reports []models.DiagnosticReport
	if err := a.db.WithContext(rctx).Find(&reports, "farm_id = ?", farm.ID).Error; err != nil {
		a.l.Error("failed to list farm reports", zap.Uint("farm", farm.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 级联删除在同一个事务里完成
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("farm_id = ?", farm.ID).Delete(&models.FarmImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("farm_id = ?", farm.ID).Delete(&models.DiagnosticReport{}).Error; err != nil {
			return err
		}
		return tx.Delete(&farm).Error
	}); err != nil {
		a.l.Error("failed to delete farm", zap.Uint("farm", farm.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 对象存储只做尽力而为的清理，失败不影响响应
	for _, img := range images {
		if img.PublicID == "" {
			continue
		}
		if err := a.blob.Destroy(rctx, img.PublicID); err != nil {
			a.l.Error("failed to destroy image blob", zap.String("publicID", img.PublicID), zap.Error(err))
		}
	}
	for _, report := range reports {
		if report.PublicID == "" {
			continue
		}
		if err := a.blob.Destroy(rctx, report.PublicID); err != nil {
			a.l.Error("failed to destroy report blob", zap.String("publicID", report.PublicID), zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Farm deleted successfully",
	})
}
