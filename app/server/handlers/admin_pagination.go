package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

func (a *App) parsePagination(c echo.Context) (bool, int, int) {
	pageStr := c.QueryParam("page")
	limitStr := c.QueryParam("limit")

	page, pageErr := strconv.Atoi(pageStr)
	limit, limitErr := strconv.Atoi(limitStr)

	if pageErr == nil && page == 0 && limitErr == nil && limit == 0 {
		// 特殊参数：展示全部
		return true, -1, -1
	}

	// 映射前：第几页，每页限制多少个
	// 映射后：页减一，限制不变
	if pageErr != nil || page < 1 {
		page = 0
	} else {
		page = page - 1
	}

	if limitErr != nil || limit <= 0 {
		limit = 100
	}

	return false, page, limit
}

func (a *App) calcMaxPage(count int64, showAll bool, limit int) int64 {
	if showAll {
		return 1
	} else {
		pageMax := count / int64(limit)
		if (count % int64(limit)) != 0 {
			pageMax++
		}
		return pageMax
	}
}
