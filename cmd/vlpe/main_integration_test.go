package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/VLPE/internal/library"
)

func TestCLI_NoTTY_StdoutOnlyImportReportJSON(t *testing.T) {
	// 这个测试锁定对外契约：stdout 非 TTY 时只能输出一个 ImportReport JSON
	// （进度/配置必须走 stderr 或直接禁用）。
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")

	// 最小输入：一个假视频文件。没有 ffprobe 或无法解码时按 rejected 处理，
	// 不影响 stdout JSON 契约本身。
	in := filepath.Join(root, "in", "a.mp4")
	if err := os.MkdirAll(filepath.Dir(in), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(in, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入视频失败：%v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/vlpe", "import", in, "--data-dir", dataDir)
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	// stdout 必须是单个 JSON。
	var rep library.ImportReport
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("stdout 不是合法的 ImportReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rep.Total != 1 {
		t.Fatalf("报告应包含 1 个条目：%+v", rep)
	}
	// 进度/配置不应出现在 stdout。
	if strings.Contains(stdout.String(), "配置（生效）") || strings.Contains(stdout.String(), "进度:") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}

	// stderr 至少应包含最终摘要行。
	if !strings.Contains(stderr.String(), "完成：imported=") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
}
