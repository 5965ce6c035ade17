package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/VLPE/internal/domain"
)

func TestLoad_MissingFilesMeanEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never-written"))

	vs, err := s.LoadVideos()
	if err != nil {
		t.Fatalf("文件缺失不应报错：%v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("期望空列表，实际 %d 条", len(vs))
	}

	cs, err := s.LoadCollections()
	if err != nil {
		t.Fatalf("文件缺失不应报错：%v", err)
	}
	if len(cs) != 0 {
		t.Fatalf("期望空列表，实际 %d 条", len(cs))
	}
}

func TestVideos_RoundTrip(t *testing.T) {
	s := New(t.TempDir())

	added := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	watched := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	in := []domain.VideoRecord{
		{
			ID:         "v1",
			Title:      "假日剪辑",
			FileRef:    []byte(`{"path":"/tmp/a.mp4"}`),
			Duration:   120,
			DateAdded:  added,
			WatchState: domain.WatchStateWatching,
			Progress:   &domain.WatchProgress{Position: 42.5, LastWatched: watched},
			FileSize:   1 << 20,
			Resolution: &domain.Resolution{Width: 1920, Height: 1080},
		},
		{
			ID:          "v2",
			Title:       "无元数据的文件",
			DateAdded:   added.Add(time.Hour),
			WatchState:  domain.WatchStateUnwatched,
			PreviewJPEG: []byte{0xFF, 0xD8, 0xFF, 0xD9},
		},
	}

	if err := s.SaveVideos(in); err != nil {
		t.Fatalf("SaveVideos 不期望错误：%v", err)
	}
	out, err := s.LoadVideos()
	if err != nil {
		t.Fatalf("LoadVideos 不期望错误：%v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round-trip 不一致（-want +got）：\n%s", diff)
	}
}

func TestCollections_RoundTrip(t *testing.T) {
	s := New(t.TempDir())

	in := []domain.CollectionRecord{
		{
			ID:          "c1",
			Name:        "旅行",
			VideoIDs:    []string{"v2", "v1"},
			DateCreated: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			Icon:        "folder",
			Color:       "blue",
		},
	}
	if err := s.SaveCollections(in); err != nil {
		t.Fatalf("SaveCollections 不期望错误：%v", err)
	}
	out, err := s.LoadCollections()
	if err != nil {
		t.Fatalf("LoadCollections 不期望错误：%v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round-trip 不一致（-want +got）：\n%s", diff)
	}
}

func TestLoad_CorruptFileSurfacesReadError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "library.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("构造坏文件失败：%v", err)
	}

	s := New(dir)
	_, err := s.LoadVideos()
	if Code(err) != ErrCodeReadFailed {
		t.Fatalf("坏文件应返回 %s，实际：%v", ErrCodeReadFailed, err)
	}
}

func TestSave_NormalizesTimesToUTC(t *testing.T) {
	s := New(t.TempDir())

	zone := time.FixedZone("X", 8*3600)
	in := []domain.VideoRecord{{
		ID:         "v1",
		Title:      "t",
		DateAdded:  time.Date(2026, 3, 1, 20, 0, 0, 0, zone),
		WatchState: domain.WatchStateUnwatched,
	}}
	if err := s.SaveVideos(in); err != nil {
		t.Fatalf("SaveVideos 不期望错误：%v", err)
	}

	b, err := os.ReadFile(filepath.Join(s.Dir, "library.json"))
	if err != nil {
		t.Fatalf("读取落盘文件失败：%v", err)
	}
	// +08:00 的 20:00 应落盘为 12:00Z。
	if want := `"date_added": "2026-03-01T12:00:00Z"`; !bytes.Contains(b, []byte(want)) {
		t.Fatalf("落盘时间不是 UTC RFC3339：%s", b)
	}
}
