// Package fsx 收拢文件写入的原子性约定：临时文件 + fsync + rename，由 renameio 落实。
package fsx

import (
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteFileAtomicReplace 在 dir 下原子写入 name（已存在则覆盖）。
//
// 语义：
// - 临时文件与目标同目录，保证 rename 的原子性
// - 提交前 fsync：崩溃不会留下半截文件，旧文件在提交前始终完整
// - dir 不存在时自动创建
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(filepath.Clean(dir), name)
	pf, err := renameio.NewPendingFile(dst, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	// 未提交（中途出错）时清掉临时文件；提交成功后 Cleanup 为 no-op。
	defer func() { _ = pf.Cleanup() }()

	if _, err := pf.Write(data); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
