// Package library 持有媒体库的内存事实来源：视频目录、合集、当前筛选与检索词。
//
// 并发纪律（硬约束）：
// - 目录/合集的每一次读-改-写都在同一把锁内完成（单写者），两次导入同一路径不会竞争出重复条目
// - 元数据探测与落盘 I/O 在后台执行；探测可跨多个导入并发，落盘按快照序号串行化
// - store 的两份文档只由本包触发读写
package library

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/VLPE/internal/bookmark"
	"github.com/John-Robertt/VLPE/internal/domain"
	"github.com/John-Robertt/VLPE/internal/infra/logx"
	"github.com/John-Robertt/VLPE/internal/probe"
	"github.com/John-Robertt/VLPE/internal/store"
)

// ErrNotFound 表示按 id 找不到目标（视频或合集）。
var ErrNotFound = errors.New("library：目标不存在")

// ErrDuplicate 表示同一规范化路径已在目录中（导入去重，no-op）。
var ErrDuplicate = errors.New("library：该文件已在媒体库中")

// Observer 把状态变更从核心流程解耦出去（渲染层订阅后自行重绘）。
//
// 约束：回调在锁外调用，但可能来自任意 goroutine；实现必须并发安全，且不得
// 在回调内再调用 Manager 的变更操作。
type Observer interface {
	OnCatalogChanged()
	OnCollectionsChanged()
	// OnImportRejected 对应“无法导入”的用户可见提示（不产生目录变更）。
	OnImportRejected(path, msg string)
}

// Manager 是唯一的变更入口。零值不可用，必须经 New 构造。
type Manager struct {
	mu          sync.Mutex
	videos      []domain.VideoRecord
	collections []domain.CollectionRecord

	selection  Selection
	searchText string

	lastImportError string

	st  store.Store
	res bookmark.Resolver
	pr  probe.Prober

	obs []Observer

	// 落盘串行化：每次变更捕获一份快照与递增序号；旧快照若已被更新的覆盖则跳过。
	persistMu   sync.Mutex
	persistWG   sync.WaitGroup
	persistSeq  uint64
	persistDone uint64

	// 可注入的时钟与 id 生成器（测试用）。
	now   func() time.Time
	newID func() string

	log zerolog.Logger
}

// New 构造 Manager。使用前先 Load。
func New(st store.Store, res bookmark.Resolver, pr probe.Prober) *Manager {
	return &Manager{
		st:        st,
		res:       res,
		pr:        pr,
		selection: Selection{Filter: FilterAll},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
		log:       logx.With("library"),
	}
}

// Subscribe 注册观察者。
func (m *Manager) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, o)
}

// Videos 返回目录快照。
func (m *Manager) Videos() []domain.VideoRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshotVideos(m.videos)
}

// Collections 返回合集快照。
func (m *Manager) Collections() []domain.CollectionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshotCollections(m.collections)
}

// LastImportError 返回最近一次导入拒绝的用户可见提示（没有则为空串）。
func (m *Manager) LastImportError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastImportError
}

// Flush 等待所有已排队的落盘完成（退出前与测试里使用）。
func (m *Manager) Flush() {
	m.persistWG.Wait()
}

// schedulePersistLocked 捕获快照并异步全量落盘。调用方必须持有 m.mu。
//
// 落盘失败只记录日志：内存态仍是事实来源，下一次变更的落盘就是事实上的重试。
func (m *Manager) schedulePersistLocked() {
	m.persistSeq++
	seq := m.persistSeq
	vs := snapshotVideos(m.videos)
	cs := snapshotCollections(m.collections)

	m.persistWG.Add(1)
	go func() {
		defer m.persistWG.Done()
		m.persistMu.Lock()
		defer m.persistMu.Unlock()
		if seq <= m.persistDone {
			return // 更新的快照已经落盘
		}
		m.persistDone = seq

		if err := m.st.SaveVideos(vs); err != nil {
			m.log.Warn().Str("error_code", store.Code(err)).Err(err).Msg("视频目录落盘失败")
		}
		if err := m.st.SaveCollections(cs); err != nil {
			m.log.Warn().Str("error_code", store.Code(err)).Err(err).Msg("合集列表落盘失败")
		}
	}()
}

func (m *Manager) observers() []Observer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Observer, len(m.obs))
	copy(out, m.obs)
	return out
}

func (m *Manager) notifyCatalog() {
	for _, o := range m.observers() {
		o.OnCatalogChanged()
	}
}

func (m *Manager) notifyCollections() {
	for _, o := range m.observers() {
		o.OnCollectionsChanged()
	}
}

func (m *Manager) notifyImportRejected(path, msg string) {
	for _, o := range m.observers() {
		o.OnImportRejected(path, msg)
	}
}

func snapshotVideos(in []domain.VideoRecord) []domain.VideoRecord {
	out := make([]domain.VideoRecord, len(in))
	copy(out, in)
	return out
}

func snapshotCollections(in []domain.CollectionRecord) []domain.CollectionRecord {
	out := make([]domain.CollectionRecord, len(in))
	copy(out, in)
	for i := range out {
		ids := make([]string, len(out[i].VideoIDs))
		copy(ids, out[i].VideoIDs)
		out[i].VideoIDs = ids
	}
	return out
}
