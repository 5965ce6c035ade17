package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "vlpe.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("写配置文件失败：%v", err)
	}
}

func TestLoadEffective_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()

	eff, err := LoadEffective(dir, CLIArgs{DataDir: dir, DataDirSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.DataDir != dir {
		t.Errorf("DataDir 期望 %q，实际 %q", dir, eff.DataDir)
	}
	if eff.Concurrency != DefaultConcurrency {
		t.Errorf("并发默认值期望 %d，实际 %d", DefaultConcurrency, eff.Concurrency)
	}
	if eff.PreviewQuality != DefaultPreviewQuality {
		t.Errorf("预览质量默认值期望 %d，实际 %d", DefaultPreviewQuality, eff.PreviewQuality)
	}
	if eff.SampleIntervalMS != DefaultSampleIntervalMS {
		t.Errorf("采样间隔默认值期望 %d，实际 %d", DefaultSampleIntervalMS, eff.SampleIntervalMS)
	}
	if eff.FFmpegBin != "" || eff.FFprobeBin != "" {
		t.Errorf("未配置二进制路径时应为空串：%+v", eff)
	}
}

func TestLoadEffective_FileFields(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
		"ffmpeg_bin": "/opt/ffmpeg/bin/ffmpeg",
		"preview_quality": 60,
		"sample_interval_ms": 250,
		"concurrency": 8,
		"log_level": "debug"
	}`)

	eff, err := LoadEffective(dir, CLIArgs{DataDir: dir, DataDirSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.FFmpegBin != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg_bin 有误：%q", eff.FFmpegBin)
	}
	if eff.PreviewQuality != 60 || eff.SampleIntervalMS != 250 || eff.Concurrency != 8 {
		t.Errorf("数值字段有误：%+v", eff)
	}
	if eff.LogLevel != "debug" {
		t.Errorf("log_level 期望 debug，实际 %q", eff.LogLevel)
	}
}

func TestLoadEffective_CLIOverridesFile(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	writeConfig(t, dir, `{"data_dir": "`+other+`", "log_level": "error"}`)

	// CLI 显式指定 data-dir：config.data_dir 不再改道。
	eff, err := LoadEffective(dir, CLIArgs{
		DataDir: dir, DataDirSet: true,
		LogLevel: "warn", LogLevelSet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.DataDir != dir {
		t.Errorf("CLI data-dir 应覆盖 config.data_dir，实际 %q", eff.DataDir)
	}
	if eff.LogLevel != "warn" {
		t.Errorf("CLI log-level 应覆盖 config.log_level，实际 %q", eff.LogLevel)
	}
}

func TestAbsCleanFrom(t *testing.T) {
	base := t.TempDir()
	if got := absCleanFrom(base, "sub/data"); got != filepath.Join(base, "sub", "data") {
		t.Errorf("相对路径应以 base 为基准，实际 %q", got)
	}
	if got := absCleanFrom(base, "/abs/./dir"); got != "/abs/dir" {
		t.Errorf("绝对路径应只做 Clean，实际 %q", got)
	}
}

func TestLoadEffective_InvalidFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"坏 JSON", `{`},
		{"预览质量越界", `{"preview_quality": 150}`},
		{"采样间隔为负", `{"sample_interval_ms": -1}`},
		{"未知日志级别", `{"log_level": "loud"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tc.body)
			_, err := LoadEffective(dir, CLIArgs{DataDir: dir, DataDirSet: true})
			if err == nil {
				t.Fatalf("应返回错误")
			}
			if Code(err) != ErrCodeInvalid {
				t.Errorf("error_code 期望 %s，实际 %s", ErrCodeInvalid, Code(err))
			}
		})
	}
}

func TestLoadEffective_ConcurrencyClamped(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"concurrency": 100}`)

	eff, err := LoadEffective(dir, CLIArgs{DataDir: dir, DataDirSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Concurrency != 32 {
		t.Errorf("并发应截断到 32，实际 %d", eff.Concurrency)
	}
}
