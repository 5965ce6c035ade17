package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/VLPE/internal/config"
	"github.com/John-Robertt/VLPE/internal/library"
)

var _ library.ImportObserver = (*importUI)(nil)

// importUI 是交互终端下的批量导入进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：library 层只发事件，CLI 决定如何展示
// - keepalive：长时间无条目完成时也会定期输出一行，降低等待焦虑
type importUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total     int
	done      int
	imported  int
	duplicate int
	rejected  int
	failed    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newImportUI(w io.Writer) *importUI {
	return &importUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

// Start 打印生效配置并启动 keepalive ticker。
func (p *importUI) Start(eff config.EffectiveConfig, total int) {
	now := time.Now()

	p.mu.Lock()
	p.startedAt = now
	p.total = total

	fmt.Fprintf(p.w, "[%s] VLPE import\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  data_dir: %s\n", eff.DataDir)
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  ffprobe: %s\n", binOrPath(eff.FFprobeBin, "ffprobe"))
	fmt.Fprintf(p.w, "  ffmpeg: %s\n", binOrPath(eff.FFmpegBin, "ffmpeg"))
	fmt.Fprintf(p.w, "待导入: %d 个文件\n\n", total)

	p.lastPrinted = time.Now()
	if total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
	p.mu.Unlock()
}

// Stop 停掉 keepalive ticker（幂等）。
func (p *importUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *importUI) OnImportItem(idx, total int, r library.ImportResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	status := "OK"
	switch r.Status {
	case library.ImportStatusImported:
		p.imported++
	case library.ImportStatusDuplicate:
		p.duplicate++
		status = "DUP"
	case library.ImportStatusRejected:
		p.rejected++
		status = "REJECT"
	default:
		p.failed++
		status = "FAIL"
	}

	switch r.Status {
	case library.ImportStatusImported:
		fmt.Fprintf(p.w, "[%d/%d] %s %s id=%s (%s)\n",
			idx, total, r.Path, status, r.VideoID, formatShortDuration(dur),
		)
	case library.ImportStatusDuplicate:
		fmt.Fprintf(p.w, "[%d/%d] %s %s (已在库中) (%s)\n",
			idx, total, r.Path, status, formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s %s: %s (%s)\n",
			idx, total, r.Path, status, truncate(r.Msg, 160), formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *importUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					elapsed := time.Since(p.startedAt)
					fmt.Fprintf(p.w, "进度: done=%d/%d imported=%d dup=%d rejected=%d failed=%d elapsed=%s\n",
						p.done, p.total, p.imported, p.duplicate, p.rejected, p.failed, formatElapsed(elapsed),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-p.stopCh:
				return
			}
		}
	}()
}

func binOrPath(bin, fallback string) string {
	if strings.TrimSpace(bin) != "" {
		return bin
	}
	return fallback + " (PATH)"
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
