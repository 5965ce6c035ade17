package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/John-Robertt/VLPE/internal/bookmark"
	"github.com/John-Robertt/VLPE/internal/domain"
	"github.com/John-Robertt/VLPE/internal/player"
	"github.com/John-Robertt/VLPE/internal/player/ffpipe"
)

func playCmd(e *env, args []string) int {
	if hasHelp(args) {
		fmt.Fprint(os.Stdout, `用法：
  vlpe play <视频ID>

终端播放控制（每行一条命令）：
  p            播放/暂停
  s <秒>       定位到绝对秒数
  + / -        前进 / 后退 10 秒
  x <速率>     调速（0.5/0.75/1/1.25/1.5/2）
  v <0..1>     设置音量
  st <轨道ID>  切换字幕轨（st 关闭）
  q            退出并保存进度

接近看完的视频从头播放，其余从上次位置续播。退出（含 Ctrl-C）时
最终位置折算进观看状态。
`)
		return 0
	}
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "play 需要一个视频ID")
		return 2
	}
	id := args[0]

	rec, ok := findVideo(e, id)
	if !ok {
		fmt.Fprintf(os.Stderr, "找不到视频 %q\n", id)
		return 1
	}

	// 播放会话期间持有一个已解析的文件括号。
	scope, err := e.mgr.ResolvePlayable(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法定位文件%s：%v\n", codeSuffix(bookmark.Code(err)), err)
		return 1
	}
	defer scope.Release()

	pipe := ffpipe.New(e.eff.FFmpegBin, e.eff.FFprobeBin)
	ctrl := player.NewController(pipe, time.Duration(e.eff.SampleIntervalMS)*time.Millisecond)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Load(ctx, scope.Path()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ctrl.Snapshot().ErrorMessage)
		ctrl.Cleanup()
		return 1
	}

	snap := ctrl.Snapshot()
	if snap.VideoMissing {
		fmt.Fprintf(os.Stderr, "注意：%s\n", snap.ErrorMessage)
	}

	var saved float64
	if rec.Progress != nil {
		saved = rec.Progress.Position
	}
	if start := player.ResumeStart(saved, snap.Duration); start > 0 {
		ctrl.SeekToTime(start)
		fmt.Fprintf(os.Stderr, "从 %s 续播\n", domain.FormatDuration(start))
	}

	printTracks(snap)
	ctrl.Play()

	runPlayLoop(ctx, ctrl, rec.Title)

	final := ctrl.Cleanup()
	if err := e.mgr.UpdateWatchProgress(id, final); err != nil {
		fmt.Fprintf(os.Stderr, "保存进度失败：%v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "已保存进度：%s\n", domain.FormatDuration(final))
	return 0
}

func findVideo(e *env, id string) (domain.VideoRecord, bool) {
	for _, v := range e.mgr.Videos() {
		if v.ID == id {
			return v, true
		}
	}
	return domain.VideoRecord{}, false
}

func printTracks(snap player.Snapshot) {
	if len(snap.Subtitles) > 0 {
		fmt.Fprintln(os.Stderr, "字幕轨：")
		for _, tr := range snap.Subtitles {
			fmt.Fprintf(os.Stderr, "  %s  %s\n", tr.ID, tr.Title)
		}
	}
	if len(snap.Audios) > 1 {
		fmt.Fprintln(os.Stderr, "音轨：")
		for _, tr := range snap.Audios {
			fmt.Fprintf(os.Stderr, "  %s  %s\n", tr.ID, tr.Title)
		}
	}
}

// runPlayLoop 读取终端命令直到 q/EOF/中断信号，同时定期刷新一行状态。
func runPlayLoop(ctx context.Context, ctrl *player.Controller, title string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	status := time.NewTicker(time.Second)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-status.C:
			printStatus(ctrl.Snapshot(), title)
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleCommand(ctrl, line); quit {
				return
			}
		}
	}
}

// handleCommand 处理一行命令；返回值表示是否退出。
func handleCommand(ctrl *player.Controller, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		printStatus(ctrl.Snapshot(), "")
		return false
	}

	switch fields[0] {
	case "q":
		return true
	case "p":
		ctrl.TogglePlayPause()
	case "+":
		ctrl.Skip(10)
	case "-":
		ctrl.Skip(-10)
	case "s":
		if len(fields) == 2 {
			if sec, err := strconv.ParseFloat(fields[1], 64); err == nil {
				ctrl.SeekToTime(sec)
			}
		}
	case "x":
		if len(fields) == 2 {
			if rate, err := strconv.ParseFloat(fields[1], 64); err == nil {
				ctrl.SetSpeed(rate)
			}
		}
	case "v":
		if len(fields) == 2 {
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
				cur := ctrl.Snapshot().Volume
				ctrl.AdjustVolume(v - cur)
			}
		}
	case "st":
		id := ""
		if len(fields) == 2 {
			id = fields[1]
		}
		ctrl.SelectSubtitle(id)
	default:
		fmt.Fprintf(os.Stderr, "未知命令 %q（q 退出，--help 查看用法）\n", fields[0])
	}
	return false
}

func printStatus(snap player.Snapshot, title string) {
	state := "⏸"
	if snap.State == player.StatePlaying {
		state = "▶"
	}
	pos := domain.FormatDuration(snap.CurrentTime)
	dur := domain.FormatDuration(snap.Duration)
	if title != "" {
		fmt.Fprintf(os.Stderr, "%s %s  %s / %s  x%.2g\n", state, title, pos, dur, snap.Speed)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s / %s  x%.2g\n", state, pos, dur, snap.Speed)
}
