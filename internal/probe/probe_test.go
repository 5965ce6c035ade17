package probe

import (
	"math"
	"testing"
)

func TestPreviewTimestamps(t *testing.T) {
	cases := []struct {
		duration float64
		want     []float64
	}{
		// 120s：3% => 3.6s（>=2 生效），8% => 9.6s（>=5 生效），回退 0。
		{120, []float64{3.6, 9.6, 0}},
		// 长片：比例点直接生效。
		{1000, []float64{30, 80, 0}},
		// 短片 10s：两个候选都被下限顶起、被 duration-1 封顶。
		{10, []float64{2, 5, 0}},
		// 4s：3% 点夹到 [2, 3]；8% 点下限 5 超过上限 3，夹到 3……与上一个不同保留。
		{4, []float64{2, 3, 0}},
		// 未知时长：只有 0。
		{0, []float64{0}},
	}
	for _, c := range cases {
		got := previewTimestamps(c.duration)
		if len(got) != len(c.want) {
			t.Errorf("duration=%v：期望 %v，实际 %v", c.duration, c.want, got)
			continue
		}
		for i := range got {
			if math.Abs(got[i]-c.want[i]) > 1e-9 {
				t.Errorf("duration=%v：期望 %v，实际 %v", c.duration, c.want, got)
				break
			}
		}
	}
}

func TestParseFFprobeOutput_VideoTrack(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "120.5"},
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 1920, "height": 1080,
			 "disposition": {"attached_pic": 0}}
		]
	}`)
	info := parseFFprobeOutput(raw)
	if !info.HasVideoTrack {
		t.Fatalf("应识别出视频轨")
	}
	if info.Duration != 120.5 {
		t.Fatalf("期望 duration=120.5，实际 %v", info.Duration)
	}
	if info.Resolution == nil || info.Resolution.Width != 1920 || info.Resolution.Height != 1080 {
		t.Fatalf("分辨率不正确：%+v", info.Resolution)
	}
}

func TestParseFFprobeOutput_RotationSwapsDimensions(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "10"},
		"streams": [
			{"codec_type": "video", "width": 1920, "height": 1080,
			 "side_data_list": [{"rotation": -90}]}
		]
	}`)
	info := parseFFprobeOutput(raw)
	if info.Resolution == nil || info.Resolution.Width != 1080 || info.Resolution.Height != 1920 {
		t.Fatalf("竖拍视频应交换宽高，实际：%+v", info.Resolution)
	}
}

func TestParseFFprobeOutput_AttachedPicIsNotVideo(t *testing.T) {
	// 带内嵌封面的纯音频文件：封面流不算可播放视频轨。
	raw := []byte(`{
		"format": {"duration": "200"},
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 500, "height": 500,
			 "disposition": {"attached_pic": 1}}
		]
	}`)
	info := parseFFprobeOutput(raw)
	if info.HasVideoTrack {
		t.Fatalf("attached_pic 流不应被判定为视频轨")
	}
	if info.Resolution != nil {
		t.Fatalf("无视频轨时不应有分辨率：%+v", info.Resolution)
	}
}

func TestParseFFprobeOutput_Garbage(t *testing.T) {
	info := parseFFprobeOutput([]byte("not json"))
	if info.HasVideoTrack || info.Duration != 0 || info.Resolution != nil {
		t.Fatalf("坏输出应全部降级为零值：%+v", info)
	}
}
