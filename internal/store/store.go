// Package store 负责媒体库两份文档（library.json / collections.json）的读写。
//
// 约定：
// - 全量读/全量写：store 自身不持有任何缓存状态，内存态的唯一持有者是 library.Manager
// - 写入必须原子（fsx：临时文件 + fsync + rename），崩溃不会破坏上一份有效文件
// - 文件缺失不是错误（首次运行），返回空列表
// - 时间统一为 UTC RFC3339（可排序的文本形态）
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/John-Robertt/VLPE/internal/domain"
	"github.com/John-Robertt/VLPE/internal/infra/fsx"
)

const (
	videosFile      = "library.json"
	collectionsFile = "collections.json"
)

const (
	// ErrCodeReadFailed 表示文档存在但无法读取/解析；调用方记录日志并以空内存态继续。
	ErrCodeReadFailed = "persist_read_failed"
	// ErrCodeWriteFailed 表示落盘失败；内存态仍是事实来源，下次成功写入即和解。
	ErrCodeWriteFailed = "persist_write_failed"
)

// Error 是持久化层的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s：%q：%v", e.Code, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Store 指向一个固定的应用数据目录。目录在首次写入时创建。
type Store struct {
	Dir string
}

func New(dir string) Store {
	return Store{Dir: filepath.Clean(dir)}
}

// DefaultDir 返回每用户的应用数据目录（<UserConfigDir>/vlpe）。
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "vlpe"), nil
}

// LoadVideos 读取视频目录；文件缺失返回空列表。
func (s Store) LoadVideos() ([]domain.VideoRecord, error) {
	var out []domain.VideoRecord
	if err := s.load(videosFile, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.VideoRecord{}
	}
	return out, nil
}

// SaveVideos 全量写入视频目录（原子替换）。
func (s Store) SaveVideos(videos []domain.VideoRecord) error {
	// 时间统一 UTC，保证落盘文本可排序且跨时区稳定。
	vs := make([]domain.VideoRecord, len(videos))
	copy(vs, videos)
	for i := range vs {
		vs[i].DateAdded = vs[i].DateAdded.UTC()
		if vs[i].Progress != nil {
			p := *vs[i].Progress
			p.LastWatched = p.LastWatched.UTC()
			vs[i].Progress = &p
		}
	}
	return s.save(videosFile, vs)
}

// LoadCollections 读取合集列表；文件缺失返回空列表。
func (s Store) LoadCollections() ([]domain.CollectionRecord, error) {
	var out []domain.CollectionRecord
	if err := s.load(collectionsFile, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.CollectionRecord{}
	}
	return out, nil
}

// SaveCollections 全量写入合集列表（原子替换）。
func (s Store) SaveCollections(collections []domain.CollectionRecord) error {
	cs := make([]domain.CollectionRecord, len(collections))
	copy(cs, collections)
	for i := range cs {
		cs[i].DateCreated = cs[i].DateCreated.UTC()
	}
	return s.save(collectionsFile, cs)
}

func (s Store) load(name string, v any) error {
	path := filepath.Join(s.Dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // 首次运行
		}
		return &Error{Code: ErrCodeReadFailed, Path: path, Err: err}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return &Error{Code: ErrCodeReadFailed, Path: path, Err: err}
	}
	return nil
}

func (s Store) save(name string, v any) error {
	// 缩进格式：文档要能被人直接翻看。
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &Error{Code: ErrCodeWriteFailed, Path: filepath.Join(s.Dir, name), Err: err}
	}
	if err := fsx.WriteFileAtomicReplace(s.Dir, name, b); err != nil {
		return &Error{Code: ErrCodeWriteFailed, Path: filepath.Join(s.Dir, name), Err: err}
	}
	return nil
}
