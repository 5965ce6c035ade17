package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/John-Robertt/VLPE/internal/domain"
)

// ffprobeOutput 只映射我们关心的字段（-print_format json -show_format -show_streams）。
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType   string `json:"codec_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Disposition struct {
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
	SideDataList []struct {
		Rotation json.Number `json:"rotation"`
	} `json:"side_data_list"`
	Tags struct {
		Rotate string `json:"rotate"`
	} `json:"tags"`
}

type containerInfo struct {
	Duration      float64
	HasVideoTrack bool
	Resolution    *domain.Resolution
}

func (p FFProbe) runFFprobe(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.ffprobe(),
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe：%v：%s", err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}

// parseFFprobeOutput 解析 ffprobe 的 JSON 输出。每个字段独立降级。
//
// 视频轨判定：codec_type=video 且非 attached_pic（内嵌封面不算可播放视频轨，
// 否则带封面的纯音频文件会被误判）。
func parseFFprobeOutput(raw []byte) containerInfo {
	var info containerInfo

	var out ffprobeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return info
	}

	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil && d > 0 {
		info.Duration = d
	}

	for i := range out.Streams {
		s := &out.Streams[i]
		if s.CodecType != "video" || s.Disposition.AttachedPic == 1 {
			continue
		}
		info.HasVideoTrack = true

		if s.Width > 0 && s.Height > 0 {
			w, h := s.Width, s.Height
			// 方向变换：±90/±270 度的拍摄要交换宽高，得到显示正确的尺寸。
			if rot := streamRotation(s); rot%180 != 0 {
				w, h = h, w
			}
			info.Resolution = &domain.Resolution{Width: w, Height: h}
		}
		break
	}
	return info
}

func streamRotation(s *ffprobeStream) int {
	for _, sd := range s.SideDataList {
		if f, err := sd.Rotation.Float64(); err == nil {
			return normalizeRotation(int(f))
		}
	}
	if s.Tags.Rotate != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s.Tags.Rotate)); err == nil {
			return normalizeRotation(n)
		}
	}
	return 0
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
