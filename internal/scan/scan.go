// Package scan 负责把导入入口拿到的路径展开为候选视频文件列表。
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// videoExts 是导入入口的扩展名白名单（拖拽/目录扫描的第一道过滤）。
// 注意：最终能否入库由探测结果的“是否存在可解码视频轨”决定，扩展名只做粗筛。
var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".mkv": {}, ".avi": {}, ".m4v": {},
	".webm": {}, ".wmv": {}, ".flv": {}, ".3gp": {}, ".ogv": {}, ".ogg": {},
}

// IsVideoPath 判断 path 的扩展名是否在白名单内（大小写不敏感）。
func IsVideoPath(path string) bool {
	_, ok := videoExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Expand 把一组输入路径（文件或目录）展开为去重、排序后的视频文件绝对路径列表。
//
// 规则：
// - 文件：扩展名在白名单内才保留
// - 目录：递归扫描，只做 stat 不读内容
// - 输出 clean + absolute，按字典序排序（跨平台稳定）
func Expand(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(paths))

	add := func(p string) error {
		abs, err := filepath.Abs(filepath.Clean(p))
		if err != nil {
			return err
		}
		if _, dup := seen[abs]; dup {
			return nil
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
		return nil
	}

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			if IsVideoPath(p) {
				if err := add(p); err != nil {
					return nil, err
				}
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !IsVideoPath(path) {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(out)
	return out, nil
}
