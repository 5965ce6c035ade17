package library

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/VLPE/internal/bookmark"
	"github.com/John-Robertt/VLPE/internal/domain"
	"github.com/John-Robertt/VLPE/internal/store"
)

// Load 并发读取两份文档，然后做一次引用保鲜扫描，完成后 Manager 进入可用状态。
//
// 读失败按约定降级：记录日志并以空内存态继续（下一次成功落盘会覆盖坏文件），不向上冒泡。
func (m *Manager) Load(ctx context.Context) error {
	var (
		vs []domain.VideoRecord
		cs []domain.CollectionRecord
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := m.st.LoadVideos()
		if err != nil {
			m.log.Warn().Str("error_code", store.Code(err)).Err(err).Msg("读取视频目录失败，以空目录继续")
			loaded = nil
		}
		vs = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := m.st.LoadCollections()
		if err != nil {
			m.log.Warn().Str("error_code", store.Code(err)).Err(err).Msg("读取合集列表失败，以空列表继续")
			loaded = nil
		}
		cs = loaded
		return nil
	})
	_ = g.Wait() // 读失败已就地降级

	m.mu.Lock()
	m.videos = vs
	m.collections = cs
	m.mu.Unlock()

	m.refreshStaleReferences()

	m.notifyCatalog()
	m.notifyCollections()
	return nil
}

// refreshStaleReferences 对每条 stale 的引用尝试铸造新令牌；全部扫完后若有刷新则落盘一次。
//
// 无法解析的引用保持原样（不尝试刷新）：该记录在用户重新导入前就是不可播放的，目录条目保留。
func (m *Manager) refreshStaleReferences() {
	m.mu.Lock()
	defer m.mu.Unlock()

	dirty := false
	for i := range m.videos {
		rec := &m.videos[i]
		if len(rec.FileRef) == 0 {
			continue
		}
		resolved, err := m.res.Resolve(bookmark.Token(rec.FileRef))
		if err != nil || !resolved.Stale {
			continue
		}

		scope, err := bookmark.Acquire(resolved.Path)
		if err != nil {
			m.log.Debug().Str("path", resolved.Path).Err(err).Msg("刷新引用前获取访问括号失败")
			continue
		}
		tok, err := m.res.Refresh(resolved.Path)
		scope.Release()
		if err != nil {
			m.log.Debug().Str("path", resolved.Path).Str("error_code", bookmark.Code(err)).Err(err).Msg("刷新引用失败")
			continue
		}

		rec.FileRef = tok
		dirty = true
	}

	if dirty {
		m.schedulePersistLocked()
	}
}

// ResolvePlayable 把一条记录换成可播放的路径（播放会话用）。
// 返回的 Scope 覆盖整个播放会话，调用方负责在会话结束时 Release。
func (m *Manager) ResolvePlayable(id string) (*bookmark.Scope, error) {
	m.mu.Lock()
	var ref []byte
	found := false
	for i := range m.videos {
		if m.videos[i].ID == id {
			ref = m.videos[i].FileRef
			found = true
			break
		}
	}
	m.mu.Unlock()

	if !found {
		return nil, ErrNotFound
	}
	if len(ref) == 0 {
		return nil, &bookmark.UnresolvableError{Err: errors.New("记录没有文件引用")}
	}
	resolved, err := m.res.Resolve(bookmark.Token(ref))
	if err != nil {
		return nil, err
	}
	return bookmark.Acquire(resolved.Path)
}
