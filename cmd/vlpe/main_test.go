package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/VLPE/internal/config"
	"github.com/John-Robertt/VLPE/internal/library"
)

func TestParseGlobalArgs(t *testing.T) {
	rest, ga, err := parseGlobalArgs([]string{
		"a.mp4", "--data-dir", "/tmp/lib", "--log-level=debug", "b.mp4",
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ga.DataDirSet || ga.DataDir != "/tmp/lib" {
		t.Errorf("data-dir 解析有误：%+v", ga)
	}
	if !ga.LogLevelSet || ga.LogLevel != "debug" {
		t.Errorf("log-level 解析有误：%+v", ga)
	}
	if len(rest) != 2 || rest[0] != "a.mp4" || rest[1] != "b.mp4" {
		t.Errorf("剩余参数应原样保留，实际 %v", rest)
	}
}

func TestParseGlobalArgs_MissingValue(t *testing.T) {
	if _, _, err := parseGlobalArgs([]string{"--data-dir"}); err == nil {
		t.Fatalf("悬空 --data-dir 应报错")
	}
}

func TestImportUI_Output(t *testing.T) {
	var buf bytes.Buffer
	ui := newImportUI(&buf)
	ui.Start(config.EffectiveConfig{DataDir: "/tmp/lib", Concurrency: 4}, 2)
	defer ui.Stop()

	ui.OnImportItem(1, 2, library.ImportResult{
		Path: "/v/a.mp4", Status: library.ImportStatusImported, VideoID: "id-1",
	}, 120*time.Millisecond)
	ui.OnImportItem(2, 2, library.ImportResult{
		Path: "/v/b.mp4", Status: library.ImportStatusRejected, Msg: "没有可解码的视频轨",
	}, 80*time.Millisecond)

	out := buf.String()
	for _, want := range []string{"[1/2]", "id-1", "[2/2]", "REJECT", "没有可解码的视频轨"} {
		if !strings.Contains(out, want) {
			t.Errorf("输出应包含 %q：\n%s", want, out)
		}
	}
}

func TestCodeSuffix(t *testing.T) {
	if got := codeSuffix(config.ErrCodeInvalid); got != " [config_invalid]" {
		t.Errorf("有码错误应带后缀，实际 %q", got)
	}
	if got := codeSuffix(""); got != "" {
		t.Errorf("无码错误不应有后缀，实际 %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 5); got != "ab..." {
		t.Errorf("截断有误：%q", got)
	}
	if got := truncate("abc", 5); got != "abc" {
		t.Errorf("不需要截断时应原样返回：%q", got)
	}
}
