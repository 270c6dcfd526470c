package handlers

import "github.com/labstack/echo/v4"

// RegisterRoutes 绑定全部 API 路由，鉴权在各 handler 内部通过 authUser 完成
func RegisterRoutes(e *echo.Echo, a *App) {
	api := e.Group("/api")

	// 公开接口
	api.GET("/health-check", a.HealthCheck)
	api.GET("/about-us", a.About)
	api.POST("/register", a.Register)
	api.POST("/login", a.Login)
	api.POST("/reset-password", a.ResetPasswordRequest)
	api.PUT("/reset-password", a.ResetPasswordConfirm)

	// 登录用户
	api.GET("/profile", a.Profile)
	api.GET("/dashboard", a.Dashboard)
	api.PUT("/update-password", a.UpdatePassword)

	api.POST("/farms", a.FarmCreate)
	api.DELETE("/farms/:id", a.FarmDelete)

	api.POST("/upload-image", a.ImageUpload)
	api.GET("/user-images", a.UserImages)
	api.DELETE("/delete-image/:id", a.ImageDelete)

	api.POST("/upload-report", a.ReportUpload)
	api.GET("/reports", a.ReportList)

	// 诊断报告：上传仅限管理员，查看农场主或管理员均可
	api.POST("/upload-diagnostic", a.DiagnosticUpload)
	api.GET("/get-diagnostics/:farm_id", a.DiagnosticList)

	// 管理端
	admin := api.Group("/admin")
	admin.GET("/all-users", a.AdminUserList)
	admin.GET("/all-farms", a.AdminFarmList)
	admin.GET("/farm-details/:id", a.AdminFarmDetails)
	admin.GET("/reports-overview", a.AdminReportsOverview)
	admin.POST("/users", a.AdminUserCreate)
	admin.PUT("/users/:id/role", a.AdminUserRoleUpdate)
	admin.DELETE("/users/:id", a.AdminUserDelete)
}
