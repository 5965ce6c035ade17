// Package probe 负责视频文件的元数据探测：时长、显示尺寸、文件大小、预览静帧、是否存在可解码视频轨。
package probe

import (
	"context"
	"os"

	"github.com/John-Robertt/VLPE/internal/domain"
	"github.com/John-Robertt/VLPE/internal/infra/imgx"
	"github.com/John-Robertt/VLPE/internal/infra/logx"
)

// Metadata 是一次探测的结果。
//
// 约束：探测从不整体失败，每个字段独立降级到空/零默认值。
// 唯一的硬门槛是 HasVideoTrack：false 时调用方必须拒绝导入（纯音频或无法解码的容器）。
type Metadata struct {
	Duration      float64 // 秒；失败为 0
	Resolution    *domain.Resolution
	FileSize      int64 // 字节；失败为 0
	PreviewJPEG   []byte
	HasVideoTrack bool
}

// Prober 是元数据探测边界（便于在 library 测试里替换为假实现）。
type Prober interface {
	Probe(ctx context.Context, path string) Metadata
}

// FFProbe 用 ffprobe/ffmpeg 子进程实现 Prober。
type FFProbe struct {
	FFprobeBin     string // 默认 "ffprobe"
	FFmpegBin      string // 默认 "ffmpeg"
	PreviewQuality int    // JPEG 质量；<=0 取 imgx.DefaultPreviewQuality
}

func (p FFProbe) ffprobe() string {
	if p.FFprobeBin != "" {
		return p.FFprobeBin
	}
	return "ffprobe"
}

func (p FFProbe) ffmpeg() string {
	if p.FFmpegBin != "" {
		return p.FFmpegBin
	}
	return "ffmpeg"
}

// Probe 探测 path。调用方负责在调用期间持有该路径的访问括号。
func (p FFProbe) Probe(ctx context.Context, path string) Metadata {
	log := logx.With("probe")
	var md Metadata

	raw, err := p.runFFprobe(ctx, path)
	if err != nil {
		// 容器整体不可读：所有字段降级；HasVideoTrack=false 由上层拒绝导入。
		log.Warn().Str("path", path).Err(err).Msg("ffprobe 失败")
	} else {
		info := parseFFprobeOutput(raw)
		md.Duration = info.Duration
		md.HasVideoTrack = info.HasVideoTrack
		md.Resolution = info.Resolution
	}

	if fi, err := os.Stat(path); err == nil {
		md.FileSize = fi.Size()
	} else {
		log.Debug().Str("path", path).Err(err).Msg("读取文件大小失败")
	}

	if md.HasVideoTrack {
		if frame := p.extractPreview(ctx, path, md.Duration); len(frame) > 0 {
			if jpg, err := imgx.NormalizeJPEG(frame, p.PreviewQuality); err == nil {
				md.PreviewJPEG = jpg
			} else {
				log.Debug().Str("path", path).Err(err).Msg("预览帧重编码失败")
			}
		}
	}

	return md
}
