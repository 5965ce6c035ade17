package domain

import "time"

// WatchState 是视频的粗粒度观看状态。
type WatchState string

const (
	WatchStateUnwatched WatchState = "unwatched"
	WatchStateWatching  WatchState = "watching"
	WatchStateFinished  WatchState = "finished"
)

const (
	// FinishedRatio 是自动判定“看完”的进度比例（position/duration 超过即 finished）。
	FinishedRatio = 0.95
	// WatchingRatio 是自动从 unwatched 进入 watching 的最小进度比例。
	WatchingRatio = 0.01
)

// WatchProgress 记录最近一次的观看位置。
type WatchProgress struct {
	Position    float64   `json:"position"` // 秒
	LastWatched time.Time `json:"last_watched"`
}

// Resolution 是经方向变换修正后的显示像素尺寸。
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoRecord 是媒体库中的一条视频记录。
//
// 不变量（实现必须遵守）：
// - ID 在整个库内唯一，创建后不变、不复用
// - DateAdded 创建后不可修改
// - FileRef 是不透明的能力令牌（bookmark.Token 的序列化形态），可能为空（从未解析成功）
// - 同一规范化路径在导入时去重（导入时检查，不持续强制）
type VideoRecord struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	FileRef     []byte         `json:"file_ref,omitempty"`
	Duration    float64        `json:"duration"` // 秒；未知为 0
	PreviewJPEG []byte         `json:"preview_jpeg,omitempty"`
	DateAdded   time.Time      `json:"date_added"`
	WatchState  WatchState     `json:"watch_state"`
	Progress    *WatchProgress `json:"watch_progress,omitempty"`
	FileSize    int64          `json:"file_size"` // 字节；未知为 0
	Resolution  *Resolution    `json:"resolution,omitempty"`
}

// NextWatchState 按进度自动推导观看状态。
//
// 规则（硬约束）：
// - duration > 0 且 position/duration > FinishedRatio => finished
// - position/duration > WatchingRatio 且当前为 unwatched => watching
// - 其余情况保持现状（显式 markFinished/markUnwatched 不经过该函数）
func NextWatchState(cur WatchState, position, duration float64) WatchState {
	if duration <= 0 {
		return cur
	}
	ratio := position / duration
	if ratio > FinishedRatio {
		return WatchStateFinished
	}
	if ratio > WatchingRatio && cur == WatchStateUnwatched {
		return WatchStateWatching
	}
	return cur
}
