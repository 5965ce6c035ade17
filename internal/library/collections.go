package library

import (
	"strings"

	"github.com/John-Robertt/VLPE/internal/domain"
)

// defaultCollectionName 是创建流程里空名称的占位（数据层不强制非空）。
const defaultCollectionName = "未命名合集"

// CreateCollection 新建合集。icon/color 是展示标签，数据层不校验取值。
func (m *Manager) CreateCollection(name, icon, color string) domain.CollectionRecord {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultCollectionName
	}

	rec := domain.CollectionRecord{
		ID:          m.newID(),
		Name:        name,
		VideoIDs:    []string{},
		DateCreated: m.now(),
		Icon:        icon,
		Color:       color,
	}

	m.mu.Lock()
	m.collections = append(m.collections, rec)
	m.schedulePersistLocked()
	m.mu.Unlock()

	m.notifyCollections()
	return rec
}

// DeleteCollection 删除合集；若当前筛选正指向它，则筛选回落到 all。
// 对视频没有任何级联影响。
func (m *Manager) DeleteCollection(id string) error {
	m.mu.Lock()
	idx := m.collectionIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.collections = append(m.collections[:idx], m.collections[idx+1:]...)
	if m.selection.CollectionID == id {
		m.selection = Selection{Filter: FilterAll}
	}
	m.schedulePersistLocked()
	m.mu.Unlock()

	m.notifyCollections()
	return nil
}

// RenameCollection 重命名合集（空白名称保持原样）。
func (m *Manager) RenameCollection(id, name string) error {
	name = strings.TrimSpace(name)

	m.mu.Lock()
	idx := m.collectionIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	if name != "" {
		m.collections[idx].Name = name
		m.schedulePersistLocked()
	}
	m.mu.Unlock()

	m.notifyCollections()
	return nil
}

// AddToCollection 把视频加入合集（集合语义：重复添加为 no-op）。
func (m *Manager) AddToCollection(collectionID, videoID string) error {
	m.mu.Lock()
	idx := m.collectionIndexLocked(collectionID)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	changed := m.collections[idx].AddVideoID(videoID)
	if changed {
		m.schedulePersistLocked()
	}
	m.mu.Unlock()

	if changed {
		m.notifyCollections()
	}
	return nil
}

// RemoveFromCollection 把视频移出合集（不在其中为 no-op）。
func (m *Manager) RemoveFromCollection(collectionID, videoID string) error {
	m.mu.Lock()
	idx := m.collectionIndexLocked(collectionID)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	changed := m.collections[idx].RemoveVideoID(videoID)
	if changed {
		m.schedulePersistLocked()
	}
	m.mu.Unlock()

	if changed {
		m.notifyCollections()
	}
	return nil
}

func (m *Manager) collectionIndexLocked(id string) int {
	for i := range m.collections {
		if m.collections[i].ID == id {
			return i
		}
	}
	return -1
}
