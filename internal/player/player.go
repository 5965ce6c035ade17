// Package player 持有单个活动视频的播放状态机，架在一个可替换的媒体管线之上。
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/VLPE/internal/domain"
	"github.com/John-Robertt/VLPE/internal/infra/logx"
)

// State 是控制器状态机：Idle → Loading → Ready{Playing|Paused} → (Error|Closed)。
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Speeds 是允许的播放速率枚举。
var Speeds = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0}

// ValidSpeed 判断 rate 是否在枚举内。
func ValidSpeed(rate float64) bool {
	for _, s := range Speeds {
		if s == rate {
			return true
		}
	}
	return false
}

// DefaultSampleInterval 是周期位置采样的默认间隔。
const DefaultSampleInterval = 500 * time.Millisecond

// Track 是字幕/音频选择组里的一个可选项。
type Track struct {
	ID    string
	Title string
	Lang  string
}

// MediaInfo 是管线加载完成后报告的媒体元信息。
type MediaInfo struct {
	Duration  float64 // 秒；未知为 0
	HasVideo  bool
	Subtitles []Track
	Audios    []Track
}

// Pipeline 是底层媒体管线边界。控制器串行化控制类调用，但 Position 由采样
// 协程在锁外调用，实现必须允许 Position 与其他方法并发。
type Pipeline interface {
	Load(ctx context.Context, path string) (MediaInfo, error)
	Play(rate float64) error
	Pause() error
	SeekTo(seconds float64) error
	Position() float64
	SetVolume(v float64) error
	// SelectSubtitle 切换字幕轨；id 为空串表示关闭字幕。
	SelectSubtitle(id string) error
	SelectAudio(id string) error
	SupportsPiP() bool
	SetPiP(on bool) error
	Close() error
}

// Snapshot 是发布给渲染层的只读状态。
type Snapshot struct {
	State        State
	CurrentTime  float64
	Duration     float64
	Progress     float64 // [0,1]；duration 未知时为 0
	Speed        float64
	Volume       float64
	ErrorMessage string
	// VideoMissing 表示软错误遮罩：管线就绪但没有视频轨（音频可继续）。
	VideoMissing bool
	PiP          bool
	Subtitles    []Track
	Audios       []Track
	SubtitleID   string
	AudioID      string
}

// Controller 是播放状态机。一次 Load 对应一次 Cleanup；Cleanup 幂等。
type Controller struct {
	mu   sync.Mutex
	pipe Pipeline

	state        State
	info         MediaInfo
	current      float64
	duration     float64
	speed        float64
	volume       float64
	pendingSeek  float64 // 秒；<0 表示无挂起 seek
	errMsg       string
	videoMissing bool
	pip          bool
	subtitleID   string
	audioID      string

	// seekGen 实现“显式 seek 赢过旧采样”的顺序保证：
	// 每次用户发起的 seek/skip 递增该代号；采样只在代号未变时写回位置。
	seekGen uint64

	interval    time.Duration
	stopSampler chan struct{}
	samplerWG   sync.WaitGroup
	cleaned     bool

	subs []func(Snapshot)
	log  zerolog.Logger
}

// NewController 构造控制器。interval<=0 取 DefaultSampleInterval。
func NewController(pipe Pipeline, interval time.Duration) *Controller {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Controller{
		pipe:        pipe,
		state:       StateIdle,
		speed:       1.0,
		volume:      1.0,
		pendingSeek: -1,
		interval:    interval,
		log:         logx.With("player"),
	}
}

// Subscribe 注册状态订阅（回调在锁外调用）。
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Snapshot 返回当前发布状态。
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	progress := 0.0
	if c.duration > 0 {
		progress = c.current / c.duration
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
	}
	return Snapshot{
		State:        c.state,
		CurrentTime:  c.current,
		Duration:     c.duration,
		Progress:     progress,
		Speed:        c.speed,
		Volume:       c.volume,
		ErrorMessage: c.errMsg,
		VideoMissing: c.videoMissing,
		PiP:          c.pip,
		Subtitles:    c.info.Subtitles,
		Audios:       c.info.Audios,
		SubtitleID:   c.subtitleID,
		AudioID:      c.audioID,
	}
}

func (c *Controller) broadcast() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// Load 加载媒体源并启动周期采样。每个 Controller 只允许一次 Load。
func (c *Controller) Load(ctx context.Context, path string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("player：当前状态 %s 不允许 Load", c.state)
	}
	c.state = StateLoading
	c.mu.Unlock()
	c.broadcast()

	info, err := c.pipe.Load(ctx, path)

	c.mu.Lock()
	if c.cleaned {
		// Load 期间发生了 Cleanup：Closed 是终态，丢弃在途结果，
		// 不再改状态、不起采样器。管线交还给（幂等的）Close。
		c.mu.Unlock()
		_ = c.pipe.Close()
		return fmt.Errorf("player：控制器已关闭")
	}
	if err != nil {
		// 硬失败：进入 Error，用户只能关闭播放器。
		c.state = StateError
		c.errMsg = fmt.Sprintf("无法播放该视频：%v", err)
		c.mu.Unlock()
		c.broadcast()
		return err
	}

	c.info = info
	c.duration = info.Duration
	if !info.HasVideo {
		// 软错误遮罩：有音频则音频可继续，只是报告，不是致命。
		c.videoMissing = true
		c.errMsg = "该文件没有可解码的视频轨"
	}
	c.state = StatePaused

	// duration 已知：落实挂起的 seek。
	if c.pendingSeek >= 0 && c.duration > 0 {
		target := clamp(c.pendingSeek, 0, c.duration)
		c.pendingSeek = -1
		c.seekGen++
		c.current = target
		if err := c.pipe.SeekTo(target); err != nil {
			c.log.Debug().Err(err).Msg("挂起 seek 落实失败")
		}
	}

	c.stopSampler = make(chan struct{})
	c.samplerWG.Add(1)
	go c.runSampler(c.stopSampler)
	c.mu.Unlock()

	c.broadcast()
	return nil
}

func (c *Controller) runSampler(stop <-chan struct{}) {
	defer c.samplerWG.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.samplePosition()
		}
	}
}

// samplePosition 周期读取管线位置。只在 Playing 且期间没有显式 seek 时写回，
// 保证 UI 不会在用户 seek 后回退到一个过期的采样值。
func (c *Controller) samplePosition() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	gen := c.seekGen
	pipe := c.pipe
	c.mu.Unlock()

	pos := pipe.Position()

	c.mu.Lock()
	if c.state != StatePlaying || gen != c.seekGen {
		c.mu.Unlock()
		return
	}
	if c.duration > 0 {
		pos = clamp(pos, 0, c.duration)
	} else if pos < 0 {
		pos = 0
	}
	c.current = pos
	c.mu.Unlock()
	c.broadcast()
}

// Play 开始/恢复播放，并重新施加当前速率。
func (c *Controller) Play() {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	if err := c.pipe.Play(c.speed); err != nil {
		c.state = StateError
		c.errMsg = fmt.Sprintf("无法播放该视频：%v", err)
		c.mu.Unlock()
		c.broadcast()
		return
	}
	c.state = StatePlaying
	c.mu.Unlock()
	c.broadcast()
}

// Pause 暂停播放。
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	if err := c.pipe.Pause(); err != nil {
		c.log.Debug().Err(err).Msg("暂停失败")
	}
	c.state = StatePaused
	c.mu.Unlock()
	c.broadcast()
}

// TogglePlayPause 在 Playing/Paused 间切换。
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	playing := c.state == StatePlaying
	c.mu.Unlock()
	if playing {
		c.Pause()
	} else {
		c.Play()
	}
}

// Seek 按进度比例（[0,1]）定位。duration 未知时为 no-op（调用方应使用 SeekToTime）。
// 显示位置同步更新，不等下一次采样。
func (c *Controller) Seek(fraction float64) {
	fraction = clamp(fraction, 0, 1)

	c.mu.Lock()
	if !c.readyLocked() || c.duration <= 0 {
		c.mu.Unlock()
		return
	}
	c.applySeekLocked(fraction * c.duration)
	c.mu.Unlock()
	c.broadcast()
}

// SeekToTime 按绝对秒数定位；duration 未知时记下挂起目标，待加载完成后落实
// （续播先于 duration 可知的场景）。
func (c *Controller) SeekToTime(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}

	c.mu.Lock()
	if c.state == StateError || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	if c.duration <= 0 {
		c.pendingSeek = seconds
		c.current = seconds // 显示位置先行
		c.mu.Unlock()
		c.broadcast()
		return
	}
	c.applySeekLocked(clamp(seconds, 0, c.duration))
	c.mu.Unlock()
	c.broadcast()
}

// Skip 相对跳转。已知 duration 时夹到 [0, duration]，否则只夹下界 0。
func (c *Controller) Skip(deltaSeconds float64) {
	c.mu.Lock()
	if !c.readyLocked() {
		c.mu.Unlock()
		return
	}
	target := c.current + deltaSeconds
	if target < 0 {
		target = 0
	}
	if c.duration > 0 && target > c.duration {
		target = c.duration
	}
	c.applySeekLocked(target)
	c.mu.Unlock()
	c.broadcast()
}

// applySeekLocked 发出零容差 seek 并同步更新显示位置。调用方必须持有 c.mu。
func (c *Controller) applySeekLocked(target float64) {
	c.seekGen++
	c.current = target
	if err := c.pipe.SeekTo(target); err != nil {
		c.log.Debug().Float64("target", target).Err(err).Msg("seek 失败")
	}
}

// SetSpeed 设置播放速率（只接受枚举值）；Playing 时立即生效。
func (c *Controller) SetSpeed(rate float64) {
	if !ValidSpeed(rate) {
		return
	}
	c.mu.Lock()
	c.speed = rate
	playing := c.state == StatePlaying
	if playing {
		if err := c.pipe.Play(rate); err != nil {
			c.log.Debug().Float64("rate", rate).Err(err).Msg("调速失败")
		}
	}
	c.mu.Unlock()
	c.broadcast()
}

// AdjustVolume 调整音量，结果夹到 [0,1]。
func (c *Controller) AdjustVolume(delta float64) {
	c.mu.Lock()
	c.volume = clamp(c.volume+delta, 0, 1)
	if err := c.pipe.SetVolume(c.volume); err != nil {
		c.log.Debug().Err(err).Msg("设置音量失败")
	}
	c.mu.Unlock()
	c.broadcast()
}

// SelectSubtitle 异步切换字幕轨（空串关闭）。失败静默忽略（菜单保持原选项）。
func (c *Controller) SelectSubtitle(id string) {
	go func() {
		if err := c.pipe.SelectSubtitle(id); err != nil {
			c.log.Debug().Str("track", id).Err(err).Msg("切换字幕轨失败")
			return
		}
		c.mu.Lock()
		if c.cleaned {
			c.mu.Unlock()
			return // 关闭的播放器丢弃在途的轨道切换
		}
		c.subtitleID = id
		c.mu.Unlock()
		c.broadcast()
	}()
}

// SelectAudio 异步切换音频轨。失败静默忽略。
func (c *Controller) SelectAudio(id string) {
	go func() {
		if err := c.pipe.SelectAudio(id); err != nil {
			c.log.Debug().Str("track", id).Err(err).Msg("切换音频轨失败")
			return
		}
		c.mu.Lock()
		if c.cleaned {
			c.mu.Unlock()
			return
		}
		c.audioID = id
		c.mu.Unlock()
		c.broadcast()
	}()
}

// TogglePiP 切换画中画；平台不支持时为 no-op。
func (c *Controller) TogglePiP() {
	c.mu.Lock()
	if !c.pipe.SupportsPiP() || !c.readyLocked() {
		c.mu.Unlock()
		return
	}
	on := !c.pip
	if err := c.pipe.SetPiP(on); err != nil {
		c.log.Debug().Err(err).Msg("切换画中画失败")
		c.mu.Unlock()
		return
	}
	c.pip = on
	c.mu.Unlock()
	c.broadcast()
}

// Cleanup 停掉采样器、停止播放并释放媒体源。每次 Load 必须恰好对应一次 Cleanup；
// 二次调用为 no-op。返回关闭时的最终位置，调用方折算进观看进度。
func (c *Controller) Cleanup() float64 {
	c.mu.Lock()
	if c.cleaned {
		final := c.current
		c.mu.Unlock()
		return final
	}
	c.cleaned = true
	stop := c.stopSampler
	c.stopSampler = nil
	final := c.current
	c.state = StateClosed
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		c.samplerWG.Wait()
	}
	if err := c.pipe.Close(); err != nil {
		c.log.Debug().Err(err).Msg("关闭媒体管线失败")
	}
	c.broadcast()
	return final
}

func (c *Controller) readyLocked() bool {
	return c.state == StatePlaying || c.state == StatePaused
}

// ResumeStart 是续播策略：保存的进度低于“看完”阈值则从该位置续播，否则从头开始
// （接近看完视为重看）。
func ResumeStart(savedPosition, duration float64) float64 {
	if duration > 0 && savedPosition > 0 && savedPosition/duration < domain.FinishedRatio {
		return savedPosition
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
