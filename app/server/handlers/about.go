package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// About 公开的平台介绍信息，无需登录
func (a *App) About(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"name":        "AgriVision AI",
		"description": "Crop health monitoring platform: NDVI and aerial imagery analysis with diagnostic reporting.",
		"contact":     "contact@agrivision.local",
	})
}
