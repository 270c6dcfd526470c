package constants

import "time"

const (
	CacheKeyPasswordReset = "agrivision:pwreset:%s"
)

const (
	CacheExpirePasswordReset = 1 * time.Hour
)
