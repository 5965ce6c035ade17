//go:build !unix

package bookmark

import "os"

// 非 unix 平台拿不到稳定的 dev/ino：指纹退化为 size+mtime。
func fileID(fi os.FileInfo) (dev, ino uint64) {
	return 0, 0
}
