package bookmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSResolver 是基于文件系统指纹的 Resolver 实现。
//
// 令牌内容：绝对路径 + 指纹（size/mtime，unix 上额外带 dev/ino）。
// - 路径可 stat 且指纹一致 => 新鲜
// - 路径可 stat 但指纹不一致（文件被替换/重写）=> stale，本进程内仍按该路径使用
// - 路径无法 stat => UnresolvableError
type FSResolver struct{}

type tokenBlob struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModUnix int64  `json:"mod_unix"`
	Dev     uint64 `json:"dev,omitempty"`
	Ino     uint64 `json:"ino,omitempty"`
}

// Create 为 path 铸造令牌。path 会被规范化为 clean + absolute。
func (FSResolver) Create(path string) (Token, error) {
	return mint(path)
}

// Resolve 把令牌换回可用路径，并报告 staleness。
func (FSResolver) Resolve(tok Token) (Resolved, error) {
	var tb tokenBlob
	if err := json.Unmarshal(tok, &tb); err != nil {
		return Resolved{}, &UnresolvableError{Path: "", Err: fmt.Errorf("令牌损坏：%w", err)}
	}
	if strings.TrimSpace(tb.Path) == "" {
		return Resolved{}, &UnresolvableError{Path: "", Err: fmt.Errorf("令牌缺少路径")}
	}

	fi, err := os.Stat(tb.Path)
	if err != nil {
		return Resolved{}, &UnresolvableError{Path: tb.Path, Err: err}
	}

	dev, ino := fileID(fi)
	stale := fi.Size() != tb.Size ||
		fi.ModTime().Unix() != tb.ModUnix ||
		dev != tb.Dev || ino != tb.Ino
	return Resolved{Path: tb.Path, Stale: stale}, nil
}

// Refresh 从当前已解析位置铸造新令牌。
// 调用方必须在调用期间持有该路径的 Scope（临时访问）。
func (FSResolver) Refresh(path string) (Token, error) {
	tok, err := mint(path)
	if err != nil {
		return nil, &RefreshError{Path: path, Err: err}
	}
	return tok, nil
}

func mint(path string) (Token, error) {
	abs, err := filepath.Abs(filepath.Clean(strings.TrimSpace(path)))
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	dev, ino := fileID(fi)
	b, err := json.Marshal(tokenBlob{
		Path:    abs,
		Size:    fi.Size(),
		ModUnix: fi.ModTime().Unix(),
		Dev:     dev,
		Ino:     ino,
	})
	if err != nil {
		return nil, err
	}
	return Token(b), nil
}
