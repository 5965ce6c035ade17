package ffpipe

import "testing"

func TestParseTracks(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "123.5"},
		"streams": [
			{"index": 0, "codec_type": "video"},
			{"index": 1, "codec_type": "audio", "tags": {"language": "jpn"}},
			{"index": 2, "codec_type": "audio", "tags": {"title": "解说"}},
			{"index": 3, "codec_type": "subtitle", "tags": {"language": "chi", "title": "简体中文"}},
			{"index": 4, "codec_type": "subtitle"}
		]
	}`)

	info, err := parseTracks(raw)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if info.Duration != 123.5 {
		t.Errorf("时长期望 123.5，实际 %v", info.Duration)
	}
	if !info.HasVideo {
		t.Errorf("应识别出视频轨")
	}
	if len(info.Audios) != 2 {
		t.Fatalf("音轨数期望 2，实际 %d", len(info.Audios))
	}
	if info.Audios[0].ID != "a:0" || info.Audios[0].Lang != "jpn" {
		t.Errorf("第一条音轨有误：%+v", info.Audios[0])
	}
	if info.Audios[1].Title != "解说" {
		t.Errorf("带标题的音轨应使用标题，实际 %q", info.Audios[1].Title)
	}
	if len(info.Subtitles) != 2 {
		t.Fatalf("字幕轨数期望 2，实际 %d", len(info.Subtitles))
	}
	if info.Subtitles[0].ID != "0" || info.Subtitles[0].Title != "简体中文" {
		t.Errorf("第一条字幕轨有误：%+v", info.Subtitles[0])
	}
	if info.Subtitles[1].Title == "" {
		t.Errorf("无标题字幕轨应有回退名称")
	}
}

func TestParseTracks_CoverArtIsNotVideo(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "200"},
		"streams": [
			{"index": 0, "codec_type": "audio"},
			{"index": 1, "codec_type": "video", "disposition": {"attached_pic": 1}}
		]
	}`)

	info, err := parseTracks(raw)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if info.HasVideo {
		t.Errorf("内嵌封面不应被判为视频轨")
	}
}

func TestParseTracks_Garbage(t *testing.T) {
	if _, err := parseTracks([]byte("not json")); err == nil {
		t.Fatalf("垃圾输入应返回错误")
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := escapeFilterPath(`/tmp/a:b's [1].mkv`)
	want := `/tmp/a\:b\'s \[1\].mkv`
	if got != want {
		t.Errorf("转义结果期望 %q，实际 %q", want, got)
	}
}

func TestPositionFrozenWhenPaused(t *testing.T) {
	p := New("", "")
	p.path = "/tmp/a.mp4"
	p.duration = 100
	p.origin = 40

	if got := p.Position(); got != 40 {
		t.Fatalf("未播放时位置应等于 origin=40，实际 %v", got)
	}

	// 越界的 origin 由 duration 封顶。
	p.origin = 500
	if got := p.Position(); got != 100 {
		t.Fatalf("位置应被 duration 封顶，实际 %v", got)
	}
}
