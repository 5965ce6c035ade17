package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/VLPE/internal/bookmark"
	"github.com/John-Robertt/VLPE/internal/domain"
)

// ErrCodeNoVideoTrack 是“无视频轨”拒绝的 error_code。
const ErrCodeNoVideoTrack = "no_video_track"

// NoVideoTrackError 表示导入被拒：容器里没有可解码的视频轨（纯音频或坏容器）。
type NoVideoTrackError struct {
	Path string
}

func (e *NoVideoTrackError) Error() string {
	return fmt.Sprintf("无法导入 %q：没有可解码的视频轨", filepath.Base(e.Path))
}

// IsNoVideoTrack 判断 err 是否为“无视频轨”拒绝。
func IsNoVideoTrack(err error) bool {
	var e *NoVideoTrackError
	return errors.As(err, &e)
}

// ImportVideo 把一个用户提供的文件导入媒体库。
//
// 顺序（硬约束）：去重检查 → 探测 → 追加 + 落盘。
// 追加前在同一把锁内复查去重，两次并发导入同一路径最多产生一条记录。
func (m *Manager) ImportVideo(ctx context.Context, path string) (domain.VideoRecord, error) {
	abs, err := filepath.Abs(filepath.Clean(strings.TrimSpace(path)))
	if err != nil {
		return domain.VideoRecord{}, err
	}

	m.mu.Lock()
	dup := m.containsPathLocked(abs)
	m.mu.Unlock()
	if dup {
		return domain.VideoRecord{}, ErrDuplicate
	}

	// 探测期间持有访问括号；所有退出路径都会释放。
	scope, err := bookmark.Acquire(abs)
	if err != nil {
		return domain.VideoRecord{}, err
	}
	defer scope.Release()

	md := m.pr.Probe(ctx, abs)
	if !md.HasVideoTrack {
		rejectErr := &NoVideoTrackError{Path: abs}
		m.mu.Lock()
		m.lastImportError = rejectErr.Error()
		m.mu.Unlock()
		m.log.Info().Str("path", abs).Str("error_code", ErrCodeNoVideoTrack).Msg("导入被拒")
		m.notifyImportRejected(abs, rejectErr.Error())
		return domain.VideoRecord{}, rejectErr
	}

	tok, err := m.res.Create(abs)
	if err != nil {
		// 引用铸造失败不挡导入：记录保留但在引用补上前不可播放。
		m.log.Warn().Str("path", abs).Err(err).Msg("创建文件引用失败")
		tok = nil
	}

	rec := domain.VideoRecord{
		ID:          m.newID(),
		Title:       strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		FileRef:     tok,
		Duration:    md.Duration,
		PreviewJPEG: md.PreviewJPEG,
		DateAdded:   m.now(),
		WatchState:  domain.WatchStateUnwatched,
		FileSize:    md.FileSize,
		Resolution:  md.Resolution,
	}

	m.mu.Lock()
	if m.containsPathLocked(abs) {
		// 并发导入同一路径：后到者让位。
		m.mu.Unlock()
		return domain.VideoRecord{}, ErrDuplicate
	}
	m.videos = append(m.videos, rec)
	m.lastImportError = ""
	m.schedulePersistLocked()
	m.mu.Unlock()

	m.notifyCatalog()
	return rec, nil
}

// containsPathLocked 判断 abs 是否已被某条记录的引用解析到。调用方必须持有 m.mu。
func (m *Manager) containsPathLocked(abs string) bool {
	for i := range m.videos {
		if len(m.videos[i].FileRef) == 0 {
			continue
		}
		resolved, err := m.res.Resolve(bookmark.Token(m.videos[i].FileRef))
		if err != nil {
			continue // 解析不了的记录不参与去重
		}
		if resolved.Path == abs {
			return true
		}
	}
	return false
}

// 批量导入的单条结果状态。
const (
	ImportStatusImported  = "imported"
	ImportStatusDuplicate = "duplicate"
	ImportStatusRejected  = "rejected"
	ImportStatusFailed    = "failed"
)

// ImportResult 是批量导入中单个文件的结果。
type ImportResult struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Msg     string `json:"msg,omitempty"`
	VideoID string `json:"video_id,omitempty"`
}

// ImportReport 是一次批量导入的汇总。
type ImportReport struct {
	Total     int            `json:"total"`
	Imported  int            `json:"imported"`
	Duplicate int            `json:"duplicate"`
	Rejected  int            `json:"rejected"`
	Failed    int            `json:"failed"`
	Items     []ImportResult `json:"items"`
}

// ImportObserver 接收批量导入的逐条进度（CLI 的进度输出走这里）。
// 回调可能来自多个 goroutine，实现必须并发安全。
type ImportObserver interface {
	OnImportItem(idx, total int, r ImportResult, dur time.Duration)
}

// ImportAll 用 worker pool 并发导入一组文件；目录追加本身由 Manager 的锁串行化。
func (m *Manager) ImportAll(ctx context.Context, paths []string, workers int, obs ImportObserver) ImportReport {
	if workers < 1 {
		workers = 1
	}

	rep := ImportReport{Total: len(paths), Items: make([]ImportResult, 0, len(paths))}

	type timedResult struct {
		r   ImportResult
		dur time.Duration
	}

	jobs := make(chan string)
	results := make(chan timedResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				started := time.Now()
				results <- timedResult{r: m.importOne(ctx, p), dur: time.Since(started)}
			}
		}()
	}

	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for tr := range results {
		done++
		rep.Items = append(rep.Items, tr.r)
		switch tr.r.Status {
		case ImportStatusImported:
			rep.Imported++
		case ImportStatusDuplicate:
			rep.Duplicate++
		case ImportStatusRejected:
			rep.Rejected++
		default:
			rep.Failed++
		}
		if obs != nil {
			obs.OnImportItem(done, len(paths), tr.r, tr.dur)
		}
	}
	return rep
}

func (m *Manager) importOne(ctx context.Context, path string) ImportResult {
	rec, err := m.ImportVideo(ctx, path)
	switch {
	case err == nil:
		return ImportResult{Path: path, Status: ImportStatusImported, VideoID: rec.ID}
	case errors.Is(err, ErrDuplicate):
		return ImportResult{Path: path, Status: ImportStatusDuplicate}
	case IsNoVideoTrack(err):
		return ImportResult{Path: path, Status: ImportStatusRejected, Msg: err.Error()}
	default:
		return ImportResult{Path: path, Status: ImportStatusFailed, Msg: err.Error()}
	}
}
