// Package bookmark 实现“能力令牌”式的文件引用：
// 把用户授权过的文件位置换成一个不透明、可持久化的令牌，之后无需再次授权即可换回可用路径。
package bookmark

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

const (
	// ErrCodeUnresolvable 表示令牌已无法解析（文件被移动/删除）。
	ErrCodeUnresolvable = "unresolvable_reference"
	// ErrCodeRefresh 表示无法从当前已解析位置铸造新令牌。
	ErrCodeRefresh = "cannot_refresh"
)

// Token 是可持久化的不透明引用（序列化后的指纹 blob）。
// 上层只允许原样保存/传递，不允许解释其内容。
type Token []byte

// Resolved 是令牌换回的结果。
//
// Stale 表示“本进程内仍然可用，但应尽快 Refresh 并重新落盘”。
// Stale 不是错误：调用方据此触发刷新，而不是放弃该记录。
type Resolved struct {
	Path  string
	Stale bool
}

// Resolver 是引用的创建/解析/刷新边界。
//
// 约束：
// - Create 只在用户已授权访问 path 时调用
// - Resolve 失败（UnresolvableError）表示“当前打不开”，不是致命错误，记录本身保留
// - Refresh 需要对 path 的临时访问（调用期间持有 Scope）
type Resolver interface {
	Create(path string) (Token, error)
	Resolve(tok Token) (Resolved, error)
	Refresh(path string) (Token, error)
}

// UnresolvableError 表示令牌已无法解析（文件被移动/删除）。
type UnresolvableError struct {
	Path string
	Err  error
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("引用无法解析：%q：%v", e.Path, e.Err)
}

func (e *UnresolvableError) Unwrap() error { return e.Err }

// IsUnresolvable 判断 err 是否为“引用无法解析”。
func IsUnresolvable(err error) bool {
	var e *UnresolvableError
	return errors.As(err, &e)
}

// RefreshError 表示无法从当前已解析位置铸造新令牌。
type RefreshError struct {
	Path string
	Err  error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("刷新引用失败：%q：%v", e.Path, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是本包错误则返回空串。
func Code(err error) string {
	var ue *UnresolvableError
	if errors.As(err, &ue) {
		return ErrCodeUnresolvable
	}
	var re *RefreshError
	if errors.As(err, &re) {
		return ErrCodeRefresh
	}
	return ""
}

// Scope 是一次“begin/end access”括号。
//
// 约束（硬）：每次触碰引用背后的文件系统（探测、刷新、播放会话）都必须
// Acquire 一个 Scope，并在所有退出路径上 Release；泄漏即资源泄漏。
// Release 幂等：二次调用为 no-op。
type Scope struct {
	path string

	mu       sync.Mutex
	f        *os.File
	released bool
}

// Acquire 对 path 开启一次访问括号。
// 打开的句柄在 Release 前一直持有，保证括号期间文件可读（即使中途被 unlink）。
func Acquire(path string) (*Scope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Scope{path: path, f: f}, nil
}

// Path 返回括号覆盖的路径。
func (s *Scope) Path() string { return s.path }

// Release 结束访问括号。幂等。
func (s *Scope) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	_ = s.f.Close()
}
