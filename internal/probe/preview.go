package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/John-Robertt/VLPE/internal/infra/logx"
)

// previewTimestamps 生成预览帧的候选时间点（按顺序尝试，取第一个出帧的）。
//
// 为什么不直接取第 0 帧：片头常常是黑场/空白，而精确寻帧又可能错过关键帧。
// 候选：约 3% 与 8% 处（各自夹到合理区间），最后回退到 0。
//   - 3% 点：至少 2s，至多 duration-1s
//   - 8% 点：至少 5s，至多 duration-1s
func previewTimestamps(duration float64) []float64 {
	if duration <= 0 {
		return []float64{0}
	}

	clamp := func(t, lo float64) (float64, bool) {
		hi := duration - 1
		if hi < 0 {
			return 0, false
		}
		if t < lo {
			t = lo
		}
		if t > hi {
			t = hi
		}
		if t < 0 {
			return 0, false
		}
		return t, true
	}

	out := make([]float64, 0, 3)
	if t, ok := clamp(duration*0.03, 2); ok {
		out = append(out, t)
	}
	if t, ok := clamp(duration*0.08, 5); ok && (len(out) == 0 || t != out[len(out)-1]) {
		out = append(out, t)
	}
	out = append(out, 0)
	return out
}

// extractPreview 依次在候选时间点抓一帧 JPEG，全部失败则返回 nil（无预览不是错误）。
//
// -ss 放在 -i 之前走关键帧快速定位，天然带 ±1s 级别的容差；这正是我们要的行为，
// 精确寻帧反而容易在稀疏关键帧的文件上抓空。
func (p FFProbe) extractPreview(ctx context.Context, path string, duration float64) []byte {
	log := logx.With("probe")
	for _, ts := range previewTimestamps(duration) {
		frame, err := p.grabFrame(ctx, path, ts)
		if err != nil {
			log.Debug().Str("path", path).Float64("ts", ts).Err(err).Msg("抓帧失败，尝试下一候选")
			continue
		}
		if len(frame) > 0 {
			return frame
		}
	}
	return nil
}

func (p FFProbe) grabFrame(ctx context.Context, path string, ts float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.ffmpeg(),
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", ts),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg：%v：%s", err, stderr.String())
	}
	return out.Bytes(), nil
}
