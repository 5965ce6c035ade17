package library

import (
	"sort"
	"strings"

	"github.com/John-Robertt/VLPE/internal/domain"
)

// WatchFilter 是按观看状态的筛选枚举。
type WatchFilter string

const (
	FilterAll      WatchFilter = "all"
	FilterWatching WatchFilter = "watching"
	FilterFinished WatchFilter = "finished"
)

// Selection 是当前的列表选择：CollectionID 非空则按合集过滤（优先），否则按 Filter。
type Selection struct {
	CollectionID string
	Filter       WatchFilter
}

// SetSelection 切换当前筛选。
func (m *Manager) SetSelection(sel Selection) {
	m.mu.Lock()
	if sel.Filter == "" {
		sel.Filter = FilterAll
	}
	m.selection = sel
	m.mu.Unlock()
	m.notifyCatalog()
}

// SetSearchText 设置检索词（标题大小写不敏感子串匹配）。
func (m *Manager) SetSearchText(text string) {
	m.mu.Lock()
	m.searchText = text
	m.mu.Unlock()
	m.notifyCatalog()
}

// Selection 返回当前筛选。
func (m *Manager) Selection() Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}

// FilteredVideos 按当前筛选与检索词返回派生列表（纯读）。
func (m *Manager) FilteredVideos() []domain.VideoRecord {
	m.mu.Lock()
	vs := snapshotVideos(m.videos)
	cs := snapshotCollections(m.collections)
	sel := m.selection
	search := m.searchText
	m.mu.Unlock()
	return FilterVideos(vs, cs, sel, search)
}

// FilterVideos 是纯函数形态的筛选：
// - 合集筛选：按成员关系；未知合集 id 得到空列表（不是错误）
// - 状态筛选：all 返回全部，watching/finished 按 watchState
// - 检索词非空时对标题做大小写不敏感子串匹配
// - 排序：dateAdded 降序（新的在前），时间相同按 id 升序保证确定性
func FilterVideos(videos []domain.VideoRecord, collections []domain.CollectionRecord, sel Selection, search string) []domain.VideoRecord {
	out := make([]domain.VideoRecord, 0, len(videos))

	if sel.CollectionID != "" {
		var member map[string]struct{}
		for i := range collections {
			if collections[i].ID == sel.CollectionID {
				member = make(map[string]struct{}, len(collections[i].VideoIDs))
				for _, id := range collections[i].VideoIDs {
					member[id] = struct{}{}
				}
				break
			}
		}
		if member == nil {
			return out
		}
		for _, v := range videos {
			if _, ok := member[v.ID]; ok {
				out = append(out, v)
			}
		}
	} else {
		for _, v := range videos {
			switch sel.Filter {
			case FilterWatching:
				if v.WatchState != domain.WatchStateWatching {
					continue
				}
			case FilterFinished:
				if v.WatchState != domain.WatchStateFinished {
					continue
				}
			}
			out = append(out, v)
		}
	}

	if s := strings.TrimSpace(search); s != "" {
		needle := strings.ToLower(s)
		filtered := out[:0]
		for _, v := range out {
			if strings.Contains(strings.ToLower(v.Title), needle) {
				filtered = append(filtered, v)
			}
		}
		out = filtered
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateAdded.Equal(out[j].DateAdded) {
			return out[i].DateAdded.After(out[j].DateAdded)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stats 是全量目录的观看状态计数（不受筛选影响）。
type Stats struct {
	Total    int `json:"total"`
	Watching int `json:"watching"`
	Finished int `json:"finished"`
}

// LibraryStats 统计全量目录。
func (m *Manager) LibraryStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Stats
	s.Total = len(m.videos)
	for i := range m.videos {
		switch m.videos[i].WatchState {
		case domain.WatchStateWatching:
			s.Watching++
		case domain.WatchStateFinished:
			s.Finished++
		}
	}
	return s
}
