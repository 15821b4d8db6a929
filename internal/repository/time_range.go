package repository

import (
	"time"
)

// DayKey 毫秒时间戳对应的 UTC 日期 YYYY-MM-DD
func DayKey(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

// MonthKey 毫秒时间戳对应的 UTC 月份 YYYY-MM
func MonthKey(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01")
}
