package domain

import (
	"fmt"
	"math"
)

// FormatDuration 把秒数格式化为 H:MM:SS（不足一小时则 M:SS）。
// 负数/NaN 一律按 0 处理（上游字段缺省即为 0）。
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatFileSize 把字节数格式化为人类可读形式（B/KB/MB/GB，1024 进制）。
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMG"[exp])
}

// ProgressLabel 返回列表展示用的进度标签。
//
// 规则：
// - unwatched 且无进度（或进度为 0）=> "NEW"
// - finished => "100%"
// - 其余：按 position/duration 取整百分比；duration 未知时返回空串
func ProgressLabel(v VideoRecord) string {
	if v.WatchState == WatchStateFinished {
		return "100%"
	}
	pos := 0.0
	if v.Progress != nil {
		pos = v.Progress.Position
	}
	if v.WatchState == WatchStateUnwatched && pos == 0 {
		return "NEW"
	}
	if v.Duration <= 0 {
		return ""
	}
	pct := int(math.Round(pos / v.Duration * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return fmt.Sprintf("%d%%", pct)
}
