package handlers

import (
	"agrivision-core/app/server/constants"
	"agrivision-core/app/server/models"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type reportInfo struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	FarmID       uint      `json:"farm_id"`
	FileName     string    `json:"file_name"`
	FileURL      string    `json:"file_url"`
	UploadDate   time.Time `json:"upload_date"`
	UploadedBy   string    `json:"uploaded_by"`
	Description  string    `json:"description"`
	IsDiagnostic bool      `json:"is_diagnostic"`
}

func serializeReport(report *models.DiagnosticReport) reportInfo {
	return reportInfo{
		ID:           report.ID,
		UserID:       report.UserID,
		FarmID:       report.FarmID,
		FileName:     report.FileName,
		FileURL:      report.FileURL,
		UploadDate:   report.UploadDate,
		UploadedBy:   report.UploadedBy,
		Description:  report.Description,
		IsDiagnostic: report.IsDiagnostic,
	}
}

// farmForAccess 按「先确认存在（404），再检查归属（403）」的顺序解析目标农场。
// 管理员不受归属限制
func (a *App) farmForAccess(c echo.Context, user *models.User, farmID uint) (*models.Farm, error, int) {
	var farm models.Farm
	if err := a.db.WithContext(c.Request().Context()).First(&farm, "id = ?", farmID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("farm not found"), http.StatusNotFound
		}
		return nil, fmt.Errorf("failed to find farm: %w", err), http.StatusInternalServerError
	}

	if farm.UserID != user.ID && !user.Role.IsAdmin() {
		return nil, fmt.Errorf("farm not owned by caller"), http.StatusForbidden
	}

	return &farm, nil, http.StatusOK
}

// uploadDocument 是报告和诊断共用的上传流程，区别只在角色要求和 is_diagnostic 标记
func (a *App) uploadDocument(c echo.Context, requireAdminRole bool, isDiagnostic bool) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, requireAdminRole)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// multipart 表单：farm_id 、description 和文档文件
	farmID, err := strconv.ParseUint(c.FormValue("farm_id"), 10, 64)
	if err != nil {
		return a.er(c, http.StatusBadRequest)
	}

	data, filename, err := readFormFile(c, "file")
	if err != nil {
		a.l.Error("failed to read document file", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	// 文档扩展名白名单
	if !isAllowedDocument(filename) {
		return a.er(c, http.StatusBadRequest)
	}

	farm, err, statusCode := a.farmForAccess(c, user, uint(farmID))
	if err != nil {
		if statusCode == http.StatusInternalServerError {
			a.l.Error("failed to resolve farm", zap.Error(err))
		}
		return a.er(c, statusCode)
	}

	// 两段式：先传对象存储，再写元数据行
	asset, err := a.blob.Upload(rctx, data, constants.BlobFolderReports, filename)
	if err != nil {
		a.l.Error("failed to upload document", zap.Error(err))
		return a.er(c, http.StatusBadGateway)
	}

	report := models.DiagnosticReport{
		UserID:       user.ID,
		FarmID:       farm.ID,
		FileName:     asset.OriginalFilename,
		FileURL:      asset.SecureURL,
		PublicID:     asset.PublicID,
		UploadDate:   time.Now().UTC(),
		UploadedBy:   user.Email,
		Description:  c.FormValue("description"),
		IsDiagnostic: isDiagnostic,
	}

	if err := a.db.WithContext(rctx).Create(&report).Error; err != nil {
		// 元数据写失败时尽力删掉刚上传的对象，错误照常返回
		if derr := a.blob.Destroy(rctx, asset.PublicID); derr != nil {
			a.l.Error("failed to clean up document after create failure", zap.Error(derr))
		}
		a.l.Error("failed to create report record", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, serializeReport(&report))
}

// ReportUpload 农场主上传自己的报告
func (a *App) ReportUpload(c echo.Context) error {
	return a.uploadDocument(c, false, false)
}

// DiagnosticUpload 管理员出具诊断，可以针对任何农场
func (a *App) DiagnosticUpload(c echo.Context) error {
	return a.uploadDocument(c, true, true)
}

func (a *App) listReports(c echo.Context, farmID uint, isDiagnostic bool) error {
	// 抓取 user 信息（认证）
	user, err, statusCode := a.authUser(c, false)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	if _, err, statusCode := a.farmForAccess(c, user, farmID); err != nil {
		if statusCode == http.StatusInternalServerError {
			a.l.Error("failed to resolve farm", zap.Error(err))
		}
		return a.er(c, statusCode)
	}

	var reports []models.DiagnosticReport
	if err := a.db.WithContext(rctx).
		Order("id ASC").
		Find(&reports, "farm_id = ? AND is_diagnostic = ?", farmID, isDiagnostic).Error; err != nil {
		a.l.Error("failed to list reports", zap.Uint("farm", farmID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resReports := []reportInfo{}
	for i := range reports {
		resReports = append(resReports, serializeReport(&reports[i]))
	}

	return c.JSON(http.StatusOK, resReports)
}

// ReportList 列出某个农场的非诊断报告（?farm_id= 形式）
func (a *App) ReportList(c echo.Context) error {
	farmID, err := strconv.ParseUint(c.QueryParam("farm_id"), 10, 64)
	if err != nil {
		return a.er(c, http.StatusBadRequest)
	}

	return a.listReports(c, uint(farmID), false)
}

// DiagnosticList 列出某个农场的诊断（路径参数形式）
func (a *App) DiagnosticList(c echo.Context) error {
	farmID, err := strconv.ParseUint(c.Param("farm_id"), 10, 64)
	if err != nil {
		return a.er(c, http.StatusBadRequest)
	}

	return a.listReports(c, uint(farmID), true)
}
