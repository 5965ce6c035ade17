package domain

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{7325, "2:02:05"},
		{-5, "0:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Errorf("FormatDuration(%v)：期望 %q，实际 %q", c.in, c.want, got)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, c := range cases {
		if got := FormatFileSize(c.in); got != c.want {
			t.Errorf("FormatFileSize(%d)：期望 %q，实际 %q", c.in, c.want, got)
		}
	}
}

func TestProgressLabel(t *testing.T) {
	now := time.Now()

	if got := ProgressLabel(VideoRecord{WatchState: WatchStateUnwatched}); got != "NEW" {
		t.Errorf("unwatched 且零进度应为 NEW，实际 %q", got)
	}
	if got := ProgressLabel(VideoRecord{WatchState: WatchStateFinished}); got != "100%" {
		t.Errorf("finished 应为 100%%，实际 %q", got)
	}
	v := VideoRecord{
		WatchState: WatchStateWatching,
		Duration:   100,
		Progress:   &WatchProgress{Position: 73, LastWatched: now},
	}
	if got := ProgressLabel(v); got != "73%" {
		t.Errorf("期望 73%%，实际 %q", got)
	}
	// duration 未知：无法计算百分比。
	v.Duration = 0
	if got := ProgressLabel(v); got != "" {
		t.Errorf("duration=0 应返回空串，实际 %q", got)
	}
}

func TestNextWatchState(t *testing.T) {
	// duration=100：96 => finished；5 => watching（从 unwatched）；0.5 => 保持 unwatched。
	if got := NextWatchState(WatchStateUnwatched, 96, 100); got != WatchStateFinished {
		t.Errorf("96/100 应为 finished，实际 %q", got)
	}
	if got := NextWatchState(WatchStateUnwatched, 5, 100); got != WatchStateWatching {
		t.Errorf("5/100 应为 watching，实际 %q", got)
	}
	if got := NextWatchState(WatchStateUnwatched, 0.5, 100); got != WatchStateUnwatched {
		t.Errorf("0.5/100 低于 1%% 阈值，应保持 unwatched，实际 %q", got)
	}
	// 已是 watching 的不回退。
	if got := NextWatchState(WatchStateWatching, 0.5, 100); got != WatchStateWatching {
		t.Errorf("watching 不应因低进度回退，实际 %q", got)
	}
	// duration 未知：保持现状。
	if got := NextWatchState(WatchStateUnwatched, 96, 0); got != WatchStateUnwatched {
		t.Errorf("duration=0 时应保持现状，实际 %q", got)
	}
}
