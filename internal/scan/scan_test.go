package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func TestIsVideoPath(t *testing.T) {
	yes := []string{"a.mp4", "B.MOV", "c.mkv", "d.avi", "e.m4v", "f.webm", "g.wmv", "h.flv", "i.3gp", "j.ogv", "k.ogg"}
	for _, p := range yes {
		if !IsVideoPath(p) {
			t.Errorf("%q 应在白名单内", p)
		}
	}
	no := []string{"a.txt", "b.srt", "c.jpg", "noext"}
	for _, p := range no {
		if IsVideoPath(p) {
			t.Errorf("%q 不应在白名单内", p)
		}
	}
}

func TestExpand_DirAndFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "dir", "b.mkv"))
	touch(t, filepath.Join(root, "dir", "sub", "a.mp4"))
	touch(t, filepath.Join(root, "dir", "note.txt"))
	touch(t, filepath.Join(root, "solo.mov"))
	touch(t, filepath.Join(root, "ignore.srt"))

	got, err := Expand([]string{
		filepath.Join(root, "dir"),
		filepath.Join(root, "solo.mov"),
		filepath.Join(root, "ignore.srt"), // 白名单外的单文件：静默跳过
		filepath.Join(root, "dir", "b.mkv"), // 与目录扫描重复：去重
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []string{
		filepath.Join(root, "dir", "b.mkv"),
		filepath.Join(root, "dir", "sub", "a.mp4"),
		filepath.Join(root, "solo.mov"),
	}
	if len(got) != len(want) {
		t.Fatalf("期望 %d 个文件，实际 %d：%v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("第 %d 项期望 %q，实际 %q", i, want[i], got[i])
		}
	}
}

func TestExpand_MissingPath(t *testing.T) {
	if _, err := Expand([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatalf("不存在的路径应报错")
	}
}
