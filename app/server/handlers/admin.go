package handlers

import (
	"agrivision-core/app/server/models"
	"agrivision-core/app/server/password"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type adminUserInfo struct {
	ID          uint        `json:"id"`
	FullName    string      `json:"full_name"`
	Email       string      `json:"email"`
	PhoneNumber string      `json:"phone_number"`
	Role        models.Role `json:"role"`
	FarmCount   int64       `json:"farm_count"`
}

type adminUserListResponse struct {
	Limit   int             `json:"limit"`
	PageMax int64           `json:"page_max"`
	List    []adminUserInfo `json:"list"`
}

type ownerCount struct {
	UserID uint
	Total  int64
}

// AdminUserList 管理员的全量用户列表。
// 原系统在这里把调用者身份传进查询又丢掉了，语义按「不过滤的管理员列表」取正
func (a *App) AdminUserList(c echo.Context) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, true)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var (
		users      []models.User
		usersCount int64
	)

	showAll, page, limit := a.parsePagination(c)
	queryBase := a.db.WithContext(rctx).Model(&models.User{}).Order("id ASC")
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&users).Error; err != nil {
		a.l.Error("failed to get user list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := a.db.WithContext(rctx).Model(&models.User{}).Count(&usersCount).Error; err != nil {
		a.l.Error("failed to count user", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 每个用户名下的农场数量，一次分组查询带出来
	var farmCounts []ownerCount
	if err := a.db.WithContext(rctx).Model(&models.Farm{}).
		Select("user_id, COUNT(*) AS total").
		Group("user_id").
		Scan(&farmCounts).Error; err != nil {
		a.l.Error("failed to count farms per user", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	countByUser := make(map[uint]int64, len(farmCounts))
	for _, fc := range farmCounts {
		countByUser[fc.UserID] = fc.Total
	}

	resUsers := []adminUserInfo{}
	for _, user := range users {
		resUsers = append(resUsers, adminUserInfo{
			ID:          user.ID,
			FullName:    user.FullName,
			Email:       user.Email,
			PhoneNumber: user.PhoneNumber,
			Role:        user.Role,
			FarmCount:   countByUser[user.ID],
		})
	}

	return c.JSON(http.StatusOK, &adminUserListResponse{
		Limit:   limit,
		PageMax: a.calcMaxPage(usersCount, showAll, limit),
		List:    resUsers,
	})
}

type adminFarmInfo struct {
	ID           uint   `json:"id"`
	FarmName     string `json:"farm_name"`
	FarmLocation string `json:"farm_location"`
	UserID       uint   `json:"user_id"`
	OwnerEmail   string `json:"owner_email"`
	ImageCount   int64  `json:"image_count"`
	ReportCount  int64  `json:"report_count"`
}

type adminFarmListResponse struct {
	Limit   int             `json:"limit"`
	PageMax int64           `json:"page_max"`
	List    []adminFarmInfo `json:"list"`
}

func (a *App) AdminFarmList(c echo.Context) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, true)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var (
		farms      []models.Farm
		farmsCount int64
	)

	showAll, page, limit := a.parsePagination(c)
	queryBase := a.db.WithContext(rctx).Model(&models.Farm{}).Order("id ASC")
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&farms).Error; err != nil {
		a.l.Error("failed to get farm list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := a.db.WithContext(rctx).Model(&models.Farm{}).Count(&farmsCount).Error; err != nil {
		a.l.Error("failed to count farm", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resFarms := []adminFarmInfo{}
	for _, farm := range farms {
		info := adminFarmInfo{
			ID:           farm.ID,
			FarmName:     farm.FarmName,
			FarmLocation: farm.FarmLocation,
			UserID:       farm.UserID,
		}

		var owner models.User
		if err := a.db.WithContext(rctx).Select("email").First(&owner, "id = ?", farm.UserID).Error; err != nil {
			a.l.Error("failed to get farm owner", zap.Uint("farm", farm.ID), zap.Error(err))
		} else {
			info.OwnerEmail = owner.Email
		}

		if err := a.db.WithContext(rctx).Model(&models.FarmImage{}).
			Where("farm_id = ?", farm.ID).Count(&info.ImageCount).Error; err != nil {
			a.l.Error("failed to count images", zap.Uint("farm", farm.ID), zap.Error(err))
		}
		if err := a.db.WithContext(rctx).Model(&models.DiagnosticReport{}).
			Where("farm_id = ?", farm.ID).Count(&info.ReportCount).Error; err != nil {
			a.l.Error("failed to count reports", zap.Uint("farm", farm.ID), zap.Error(err))
		}

		resFarms = append(resFarms, info)
	}

	return c.JSON(http.StatusOK, &adminFarmListResponse{
		Limit:   limit,
		PageMax: a.calcMaxPage(farmsCount, showAll, limit),
		List:    resFarms,
	})
}

type adminFarmDetailsResponse struct {
	Farm       farmInfo     `json:"farm"`
	OwnerEmail string       `json:"owner_email"`
	OwnerName  string       `json:"owner_name"`
	Images     []imageInfo  `json:"images"`
	Reports    []reportInfo `json:"reports"`
}

func (a *App) AdminFarmDetails(c echo.Context) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, true)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return a.er(c, http.StatusBadRequest)
	}

	var farm models.Farm
	if err := a.db.WithContext(rctx).First(&farm, "id = ?", uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		}
		a.l.Error("failed to find farm", zap.Uint64("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	var owner models.User
	if err := a.db.WithContext(rctx).First(&owner, "id = ?", farm.UserID).Error; err != nil {
		a.l.Error("failed to get farm owner", zap.Uint("farm", farm.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	var images []models.FarmImage
	if err := a.db.WithContext(rctx).Order("id ASC").Find(&images, "farm_id = ?", farm.ID).Error; err != nil {
		a.l.Error("failed to list images", zap.Uint("farm", farm.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	var reports []models.DiagnosticReport
	if err := a.db.WithContext(rctx).Order("id ASC").Find(&reports, "farm_id = ?", farm.ID).Error; err != nil {
		a.l.Error("failed to list reports", zap.Uint("farm", farm.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	res := adminFarmDetailsResponse{
		Farm:       serializeFarm(&farm),
		OwnerEmail: owner.Email,
		OwnerName:  owner.FullName,
		Images:     []imageInfo{},
		Reports:    []reportInfo{},
	}
	for i := range images {
		res.Images = append(res.Images, serializeImage(&images[i]))
	}
	for i := range reports {
		res.Reports = append(res.Reports, serializeReport(&reports[i]))
	}

	return c.JSON(http.StatusOK, &res)
}

type adminReportsOverviewResponse struct {
	Users       int64 `json:"users"`
	Farms       int64 `json:"farms"`
	Images      int64 `json:"images"`
	Reports     int64 `json:"reports"`
	Diagnostics int64 `json:"diagnostics"`
}

func (a *App) AdminReportsOverview(c echo.Context) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, true)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var res adminReportsOverviewResponse
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&res.Users, a.db.WithContext(rctx).Model(&models.User{})},
		{&res.Farms, a.db.WithContext(rctx).Model(&models.Farm{})},
		{&res.Images, a.db.WithContext(rctx).Model(&models.FarmImage{})},
		{&res.Reports, a.db.WithContext(rctx).Model(&models.DiagnosticReport{}).Where("is_diagnostic = ?", false)},
		{&res.Diagnostics, a.db.WithContext(rctx).Model(&models.DiagnosticReport{}).Where("is_diagnostic = ?", true)},
	}
	for _, item := range counts {
		if err := item.query.Count(item.dst).Error; err != nil {
			a.l.Error("failed to count", zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, &res)
}

type adminUserCreateRequest struct {
	FullName    string      `json:"full_name"`
	Email       string      `json:"email"`
	PhoneNumber string      `json:"phone_number"`
	Password    string      `json:"password"`
	Role        models.Role `json:"role"`
}

// AdminUserCreate 管理端直接开通账号，角色可以直接设为管理员
func (a *App) AdminUserCreate(c echo.Context) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, true)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req adminUserCreateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind json body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return a.er(c, http.StatusBadRequest)
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		return a.er(c, http.StatusBadRequest)
	}
	if req.PhoneNumber == "" {
		req.PhoneNumber = "000000000"
	}

	// 邮箱全局唯一
	var existing int64
	if err := a.db.WithContext(rctx).Model(&models.User{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		a.l.Error("failed to check existing user", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	} else if existing > 0 {
		return a.er(c, http.StatusConflict)
	}

	// 处理密码
	salt, err := password.NewSalt()
	if err != nil {
		a.l.Error("failed to generate salt", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	hash, err := password.Derive(req.Password, salt)
	if err != nil {
		a.l.Error("failed to derive password", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	user := models.User{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    hash,
		Salt:        salt,
		Role:        req.Role,
	}

	if err := a.db.WithContext(rctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return a.er(c, http.StatusConflict)
		}
		a.l.Error("failed to create user", zap.String("email", req.Email), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, &adminUserInfo{
		ID:          user.ID,
		FullName:    user.FullName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
	})
}

type adminUserRoleRequest struct {
	Role models.Role `json:"role"`
}

// AdminUserRoleUpdate 提升或降级用户角色
func (a *App) AdminUserRoleUpdate(c echo.Context) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, true)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return a.er(c, http.StatusBadRequest)
	}

	// 绑定请求体
	var req adminUserRoleRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind json body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得指定的用户
	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "id = ?", uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		}
		a.l.Error("failed to get user", zap.Uint64("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 更新用户信息
	if err := a.db.WithContext(rctx).Model(&user).Update("role", req.Role).Error; err != nil {
		a.l.Error("failed to update user role", zap.Uint("id", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, &adminUserInfo{
		ID:          user.ID,
		FullName:    user.FullName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
	})
}

// AdminUserDelete 删除用户并级联清理其农场、图像和文档
func (a *App) AdminUserDelete(c echo.Context) error {
	// 抓取 user 信息（认证）
	caller, err, statusCode := a.authUser(c, true)
	if err != nil {
		a.l.Error("failed to get user", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return a.er(c, http.StatusBadRequest)
	}
	if uint(id) == caller.ID {
		// 不允许删掉自己，不然最后一个管理员没了谁都进不来
		return a.er(c, http.StatusBadRequest)
	}

	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "id = ?", uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		}
		a.l.Error("failed to get user", zap.Uint64("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 收集要清理的对象存储资源
	farmIDs := a.db.Model(&models.Farm{}).Select("id").Where("user_id = ?", user.ID)

	var images []models.FarmImage
	if err := a.db.WithContext(rctx).Find(&images, "farm_id IN (?)", farmIDs).Error; err != nil {
		a.l.Error("failed to list images", zap.Uint("user", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	var reports []models.DiagnosticReport
	if err := a.db.WithContext(rctx).
		Where("user_id = ?", user.ID).
		Or("farm_id IN (?)", farmIDs).
		Find(&reports).Error; err != nil {
		a.l.Error("failed to list reports", zap.Uint("user", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 级联删除在同一个事务里完成
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		ownedFarms := tx.Model(&models.Farm{}).Select("id").Where("user_id = ?", user.ID)

		if err := tx.Where("farm_id IN (?)", ownedFarms).Delete(&models.FarmImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).
			Or("farm_id IN (?)", tx.Model(&models.Farm{}).Select("id").Where("user_id = ?", user.ID)).
			Delete(&models.DiagnosticReport{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Farm{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	}); err != nil {
		a.l.Error("failed to delete user", zap.Uint("id", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 对象存储尽力清理
	if user.PublicID != "" {
		if err := a.blob.Destroy(rctx, user.PublicID); err != nil {
			a.l.Error("failed to destroy avatar blob", zap.String("publicID", user.PublicID), zap.Error(err))
		}
	}
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
		"message": "User deleted successfully",
	})
}
