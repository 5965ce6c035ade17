package library

import (
	"strings"

	"github.com/John-Robertt/VLPE/internal/domain"
)

// RemoveVideo 从目录删除一条记录，并把它从所有合集里剔除。
func (m *Manager) RemoveVideo(id string) error {
	m.mu.Lock()
	idx := m.videoIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.videos = append(m.videos[:idx], m.videos[idx+1:]...)
	collectionsChanged := false
	for i := range m.collections {
		if m.collections[i].RemoveVideoID(id) {
			collectionsChanged = true
		}
	}
	m.schedulePersistLocked()
	m.mu.Unlock()

	m.notifyCatalog()
	if collectionsChanged {
		m.notifyCollections()
	}
	return nil
}

// RenameVideo 修改展示标题（空白标题保持原样）。
func (m *Manager) RenameVideo(id, title string) error {
	title = strings.TrimSpace(title)

	m.mu.Lock()
	idx := m.videoIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	if title != "" {
		m.videos[idx].Title = title
		m.schedulePersistLocked()
	}
	m.mu.Unlock()

	m.notifyCatalog()
	return nil
}

// UpdateWatchProgress 写入最近观看位置，并按阈值自动迁移观看状态。
//
// 播放器关闭时上报的最终位置也走这里折算进 watch-progress。
func (m *Manager) UpdateWatchProgress(id string, position float64) error {
	m.mu.Lock()
	idx := m.videoIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	rec := &m.videos[idx]
	rec.Progress = &domain.WatchProgress{Position: position, LastWatched: m.now()}
	rec.WatchState = domain.NextWatchState(rec.WatchState, position, rec.Duration)
	m.schedulePersistLocked()
	m.mu.Unlock()

	m.notifyCatalog()
	return nil
}

// MarkFinished 显式标记看完（不动已有进度）。
func (m *Manager) MarkFinished(id string) error {
	m.mu.Lock()
	idx := m.videoIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.videos[idx].WatchState = domain.WatchStateFinished
	m.schedulePersistLocked()
	m.mu.Unlock()

	m.notifyCatalog()
	return nil
}

// MarkUnwatched 显式重置为未看，并清空观看进度。
func (m *Manager) MarkUnwatched(id string) error {
	m.mu.Lock()
	idx := m.videoIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.videos[idx].WatchState = domain.WatchStateUnwatched
	m.videos[idx].Progress = nil
	m.schedulePersistLocked()
	m.mu.Unlock()

	m.notifyCatalog()
	return nil
}

func (m *Manager) videoIndexLocked(id string) int {
	for i := range m.videos {
		if m.videos[i].ID == id {
			return i
		}
	}
	return -1
}
