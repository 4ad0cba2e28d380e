package shared

import (
	"strconv"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// ParseTimeNullable 解析 RFC3339 或 YYYY-MM-DD，空串返回 nil
// endOfDay 为 true 时日期格式取当天最后一毫秒
func ParseTimeNullable(raw string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	parsed, err := time.ParseInLocation(dateOnlyLayout, raw, loc)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		parsed = parsed.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return &parsed, nil
}

// ParseUintParam 解析正整数 ID
func ParseUintParam(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
