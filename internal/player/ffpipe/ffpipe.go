// Package ffpipe 用 ffmpeg 子进程实现播放管线：seek/调速/换轨都通过在新位置
// 重启解码进程完成，位置用墙钟推算而不是回读进程。
package ffpipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/VLPE/internal/infra/logx"
	"github.com/John-Robertt/VLPE/internal/player"
)

// Pipe 是基于 ffmpeg 的 player.Pipeline 实现。
//
// 约束：
//   - 解码进程一次只有一个；seek、调速、换轨统一走“杀掉重启”路径。
//   - Position 不回读子进程：origin + 运行时长 × 速率 的墙钟推算，
//     与进程解码进度的偏差由 -re（按输入速率限速）收敛。
type Pipe struct {
	// 二进制路径；空串用 PATH 上的 ffmpeg/ffprobe。
	FFmpegBin  string
	FFprobeBin string

	mu       sync.Mutex
	path     string
	duration float64

	origin    float64 // 当前解码段的起点（秒）
	startedAt time.Time
	playing   bool
	rate      float64
	volume    float64
	subtitle  string // 字幕轨流内索引；空串关闭
	audio     string // 音频轨流内索引；空串默认轨

	cmd  *exec.Cmd
	done chan struct{}

	log zerolog.Logger
}

// New 构造管线。
func New(ffmpegBin, ffprobeBin string) *Pipe {
	return &Pipe{
		FFmpegBin:  ffmpegBin,
		FFprobeBin: ffprobeBin,
		rate:       1.0,
		volume:     1.0,
		log:        logx.With("ffpipe"),
	}
}

func (p *Pipe) ffmpeg() string {
	if p.FFmpegBin != "" {
		return p.FFmpegBin
	}
	return "ffmpeg"
}

func (p *Pipe) ffprobe() string {
	if p.FFprobeBin != "" {
		return p.FFprobeBin
	}
	return "ffprobe"
}

// Load 探测媒体并报告可选轨道。不启动解码进程：首次 Play 才启动。
func (p *Pipe) Load(ctx context.Context, path string) (player.MediaInfo, error) {
	info, err := probeTracks(ctx, p.ffprobe(), path)
	if err != nil {
		return player.MediaInfo{}, err
	}

	p.mu.Lock()
	p.path = path
	p.duration = info.Duration
	p.origin = 0
	p.playing = false
	p.mu.Unlock()

	return info, nil
}

// Play 从当前位置启动（或重启）解码进程。
func (p *Pipe) Play(rate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.path == "" {
		return errors.New("ffpipe：尚未加载媒体")
	}
	// 调速也走重启：先把已播进度折进 origin，再按新速率起新段。
	p.freezeLocked()
	p.rate = rate
	return p.startLocked()
}

// Pause 杀掉解码进程并冻结当前位置。
func (p *Pipe) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freezeLocked()
	p.stopLocked()
	return nil
}

// SeekTo 把起点挪到 seconds；播放中则在新位置重启进程。
func (p *Pipe) SeekTo(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	wasPlaying := p.playing
	p.stopLocked()
	p.origin = seconds
	p.playing = false
	if wasPlaying {
		return p.startLocked()
	}
	return nil
}

// Position 返回推算位置。
func (p *Pipe) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Pipe) positionLocked() float64 {
	pos := p.origin
	if p.playing {
		pos += time.Since(p.startedAt).Seconds() * p.rate
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}

// SetVolume 记录音量；播放中重启进程以套用新的 volume 滤镜。
func (p *Pipe) SetVolume(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
	return p.restartIfPlayingLocked()
}

// SelectSubtitle 切换字幕轨（空串关闭）。字幕是解码期烧录的，换轨要重启。
func (p *Pipe) SelectSubtitle(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subtitle = id
	return p.restartIfPlayingLocked()
}

// SelectAudio 切换音频轨（空串回默认轨）。
func (p *Pipe) SelectAudio(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audio = id
	return p.restartIfPlayingLocked()
}

// SupportsPiP 恒为 false：子进程管线没有可悬浮的视图层。
func (p *Pipe) SupportsPiP() bool { return false }

func (p *Pipe) SetPiP(bool) error {
	return errors.New("ffpipe：不支持画中画")
}

// Close 杀掉解码进程并释放媒体。幂等。
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freezeLocked()
	p.stopLocked()
	p.path = ""
	return nil
}

// freezeLocked 把运行中的进度折进 origin（Pause/调速前调用）。
func (p *Pipe) freezeLocked() {
	if p.playing {
		p.origin = p.positionLocked()
	}
}

func (p *Pipe) restartIfPlayingLocked() error {
	if !p.playing {
		return nil
	}
	p.freezeLocked()
	return p.startLocked()
}

// startLocked 在 p.origin 处启动解码进程。调用方必须持有 p.mu。
func (p *Pipe) startLocked() error {
	p.stopLocked()

	args := []string{"-hide_banner", "-loglevel", "error"}
	if p.origin > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", p.origin))
	}
	// -re 按输入原速限速，让进程进度跟上墙钟推算。
	args = append(args, "-re", "-i", p.path)

	if p.audio != "" {
		args = append(args, "-map", "0:v:0?", "-map", "0:"+p.audio)
	}
	if filters := p.videoFiltersLocked(); filters != "" {
		args = append(args, "-vf", filters)
	}
	if p.volume != 1.0 {
		args = append(args, "-af", fmt.Sprintf("volume=%.2f", p.volume))
	}
	if p.rate != 1.0 {
		// 速率直接折算进限速：输入时间基除以 rate 等价于 rate 倍速解码。
		args = append(args, "-readrate", fmt.Sprintf("%.2f", p.rate))
	}
	args = append(args, "-f", "null", "-")

	cmd := exec.Command(p.ffmpeg(), args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffpipe：启动 ffmpeg：%w", err)
	}

	done := make(chan struct{})
	go func() {
		// 收尸；播放到尾自然退出时位置推算由 duration 封顶。
		_ = cmd.Wait()
		close(done)
	}()

	p.cmd = cmd
	p.done = done
	p.startedAt = time.Now()
	p.playing = true
	return nil
}

// stopLocked 杀掉当前进程并等它退出。调用方必须持有 p.mu。
func (p *Pipe) stopLocked() {
	if p.cmd == nil {
		p.playing = false
		return
	}
	if p.cmd.Process != nil {
		if err := p.cmd.Process.Kill(); err != nil {
			p.log.Debug().Err(err).Msg("杀掉解码进程失败")
		}
	}
	<-p.done
	p.cmd = nil
	p.done = nil
	p.playing = false
}

func (p *Pipe) videoFiltersLocked() string {
	if p.subtitle == "" {
		return ""
	}
	// 烧录内嵌字幕轨。路径里的特殊字符按 ffmpeg 滤镜语法转义。
	return fmt.Sprintf("subtitles=%s:si=%s", escapeFilterPath(p.path), p.subtitle)
}

// escapeFilterPath 转义 ffmpeg 滤镜参数里的保留字符。
func escapeFilterPath(path string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
	return r.Replace(path)
}

// probeStreams 只映射轨道枚举需要的字段。
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		Index       int    `json:"index"`
		CodecType   string `json:"codec_type"`
		Disposition struct {
			AttachedPic int `json:"attached_pic"`
		} `json:"disposition"`
		Tags struct {
			Title    string `json:"title"`
			Language string `json:"language"`
		} `json:"tags"`
	} `json:"streams"`
}

func probeTracks(ctx context.Context, bin, path string) (player.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, bin,
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
		return player.MediaInfo{}, fmt.Errorf("ffprobe：%v：%s", err, strings.TrimSpace(stderr.String()))
	}
	return parseTracks(out.Bytes())
}

func parseTracks(raw []byte) (player.MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return player.MediaInfo{}, fmt.Errorf("ffprobe 输出无法解析：%w", err)
	}

	var info player.MediaInfo
	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil && d > 0 {
		info.Duration = d
	}

	subIdx, audIdx := 0, 0
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if s.Disposition.AttachedPic != 1 {
				info.HasVideo = true
			}
		case "subtitle":
			info.Subtitles = append(info.Subtitles, player.Track{
				ID:    strconv.Itoa(subIdx),
				Title: trackTitle(s.Tags.Title, s.Tags.Language, "字幕", subIdx),
				Lang:  s.Tags.Language,
			})
			subIdx++
		case "audio":
			info.Audios = append(info.Audios, player.Track{
				ID:    "a:" + strconv.Itoa(audIdx),
				Title: trackTitle(s.Tags.Title, s.Tags.Language, "音轨", audIdx),
				Lang:  s.Tags.Language,
			})
			audIdx++
		}
	}
	return info, nil
}

func trackTitle(title, lang, kind string, idx int) string {
	if title != "" {
		return title
	}
	if lang != "" {
		return fmt.Sprintf("%s %d（%s）", kind, idx+1, lang)
	}
	return fmt.Sprintf("%s %d", kind, idx+1)
}
