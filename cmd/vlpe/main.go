package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/John-Robertt/VLPE/internal/bookmark"
	"github.com/John-Robertt/VLPE/internal/config"
	"github.com/John-Robertt/VLPE/internal/domain"
	"github.com/John-Robertt/VLPE/internal/infra/logx"
	"github.com/John-Robertt/VLPE/internal/library"
	"github.com/John-Robertt/VLPE/internal/probe"
	"github.com/John-Robertt/VLPE/internal/scan"
	"github.com/John-Robertt/VLPE/internal/store"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	cmd := args[0]
	rest, ga, err := parseGlobalArgs(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printUsage()
		os.Exit(2)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		os.Exit(1)
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		DataDir: ga.DataDir, DataDirSet: ga.DataDirSet,
		LogLevel: ga.LogLevel, LogLevelSet: ga.LogLevelSet,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误%s：%v\n", codeSuffix(config.Code(err)), err)
		os.Exit(1)
	}
	logx.Configure(logx.Config{Level: eff.LogLevel})

	e, err := newEnv(eff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化媒体库失败：%v\n", err)
		os.Exit(1)
	}

	var code int
	switch cmd {
	case "import":
		code = importCmd(e, rest)
	case "list":
		code = listCmd(e, rest)
	case "stats":
		code = statsCmd(e, rest)
	case "collection":
		code = collectionCmd(e, rest)
	case "play":
		code = playCmd(e, rest)
	case "rm":
		code = rmCmd(e, rest)
	case "rename":
		code = renameCmd(e, rest)
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", cmd)
		printUsage()
		code = 2
	}

	// 退出前确保挂起的持久化落盘。
	e.mgr.Flush()
	if code != 0 {
		os.Exit(code)
	}
}

// env 是一条命令运行所需的已装配依赖。
type env struct {
	eff config.EffectiveConfig
	mgr *library.Manager
}

func newEnv(eff config.EffectiveConfig) (*env, error) {
	mgr := library.New(
		store.New(eff.DataDir),
		bookmark.FSResolver{},
		probe.FFProbe{
			FFprobeBin:     eff.FFprobeBin,
			FFmpegBin:      eff.FFmpegBin,
			PreviewQuality: eff.PreviewQuality,
		},
	)
	if err := mgr.Load(context.Background()); err != nil {
		return nil, err
	}
	return &env{eff: eff, mgr: mgr}, nil
}

type globalArgs struct {
	DataDir    string
	DataDirSet bool

	LogLevel    string
	LogLevelSet bool
}

// parseGlobalArgs 摘出全局参数（--data-dir/--log-level），其余原样返回给子命令。
func parseGlobalArgs(args []string) ([]string, globalArgs, error) {
	var ga globalArgs
	rest := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--data-dir":
			if i+1 >= len(args) {
				return nil, globalArgs{}, fmt.Errorf("--data-dir 需要一个值")
			}
			i++
			ga.DataDir = args[i]
			ga.DataDirSet = true
		case strings.HasPrefix(a, "--data-dir="):
			ga.DataDir = strings.TrimPrefix(a, "--data-dir=")
			ga.DataDirSet = true
		case a == "--log-level":
			if i+1 >= len(args) {
				return nil, globalArgs{}, fmt.Errorf("--log-level 需要一个值")
			}
			i++
			ga.LogLevel = args[i]
			ga.LogLevelSet = true
		case strings.HasPrefix(a, "--log-level="):
			ga.LogLevel = strings.TrimPrefix(a, "--log-level=")
			ga.LogLevelSet = true
		default:
			rest = append(rest, a)
		}
	}
	return rest, ga, nil
}

func importCmd(e *env, args []string) int {
	if hasHelp(args) {
		fmt.Fprint(os.Stdout, `用法：
  vlpe import <路径>...

把文件或目录导入媒体库。目录会递归展开，只收常见视频扩展名；
没有可解码视频轨的文件被拒绝，已在库中的文件按重复跳过。
`)
		return 0
	}
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "import 需要至少一个路径")
		return 2
	}

	paths, err := scan.Expand(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "展开路径失败：%v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "没有找到可导入的视频文件")
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs library.ImportObserver
	if interactive {
		ui := newImportUI(progressW)
		ui.Start(e.eff, len(paths))
		defer ui.Stop()
		obs = ui
	}

	rep := e.mgr.ImportAll(context.Background(), paths, e.eff.Concurrency, obs)
	emitImportReport(rep)

	if rep.Failed > 0 {
		return 1
	}
	return 0
}

func emitImportReport(rep library.ImportReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：imported=%d duplicate=%d rejected=%d failed=%d\n",
			rep.Imported, rep.Duplicate, rep.Rejected, rep.Failed,
		)
		for _, it := range rep.Items {
			if it.Status == library.ImportStatusImported || it.Status == library.ImportStatusDuplicate {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", it.Path, it.Status, it.Msg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个报告 JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rep)
	fmt.Fprintf(os.Stderr, "完成：imported=%d duplicate=%d rejected=%d failed=%d\n",
		rep.Imported, rep.Duplicate, rep.Rejected, rep.Failed,
	)
}

func listCmd(e *env, args []string) int {
	if hasHelp(args) {
		fmt.Fprint(os.Stdout, `用法：
  vlpe list [--filter all|watching|finished] [--collection <合集ID>] [--search <文本>]

按当前筛选条件列出媒体库（新导入在前）。
`)
		return 0
	}

	sel := library.Selection{Filter: library.FilterAll}
	search := ""
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--filter":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--filter 需要一个值")
				return 2
			}
			i++
			switch args[i] {
			case "all":
				sel.Filter = library.FilterAll
			case "watching":
				sel.Filter = library.FilterWatching
			case "finished":
				sel.Filter = library.FilterFinished
			default:
				fmt.Fprintf(os.Stderr, "--filter 只能是 all/watching/finished，实际是 %q\n", args[i])
				return 2
			}
		case a == "--collection":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--collection 需要一个值")
				return 2
			}
			i++
			sel.CollectionID = args[i]
		case a == "--search":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--search 需要一个值")
				return 2
			}
			i++
			search = args[i]
		default:
			fmt.Fprintf(os.Stderr, "未知参数 %q\n", a)
			return 2
		}
	}

	e.mgr.SetSelection(sel)
	e.mgr.SetSearchText(search)
	videos := e.mgr.FilteredVideos()

	if !isTTY(os.Stdout) {
		enc := json.NewEncoder(os.Stdout)
		_ = enc.Encode(videos)
		return 0
	}

	if len(videos) == 0 {
		fmt.Fprintln(os.Stdout, "（空）")
		return 0
	}
	for _, v := range videos {
		label := domain.ProgressLabel(v)
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(os.Stdout, "%s  %-8s %10s  %6s  %s\n",
			v.ID,
			label,
			domain.FormatFileSize(v.FileSize),
			domain.FormatDuration(v.Duration),
			v.Title,
		)
	}
	return 0
}

func statsCmd(e *env, args []string) int {
	if hasHelp(args) {
		fmt.Fprint(os.Stdout, "用法：\n  vlpe stats\n\n输出媒体库计数。\n")
		return 0
	}
	st := e.mgr.LibraryStats()
	if !isTTY(os.Stdout) {
		enc := json.NewEncoder(os.Stdout)
		_ = enc.Encode(map[string]int{
			"total":    st.Total,
			"watching": st.Watching,
			"finished": st.Finished,
		})
		return 0
	}
	fmt.Fprintf(os.Stdout, "共 %d 个视频：在看 %d，看完 %d\n", st.Total, st.Watching, st.Finished)
	return 0
}

func collectionCmd(e *env, args []string) int {
	if len(args) == 0 || hasHelp(args) {
		fmt.Fprint(os.Stdout, `用法：
  vlpe collection create <名称>
  vlpe collection delete <合集ID>
  vlpe collection rename <合集ID> <新名称>
  vlpe collection add <合集ID> <视频ID>
  vlpe collection remove <合集ID> <视频ID>
  vlpe collection list
`)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	sub := args[0]
	rest := args[1:]
	switch sub {
	case "create":
		if len(rest) != 1 {
			fmt.Fprintln(os.Stderr, "create 需要一个名称")
			return 2
		}
		c := e.mgr.CreateCollection(rest[0], "", "")
		fmt.Fprintf(os.Stdout, "%s  %s\n", c.ID, c.Name)
		return 0
	case "delete":
		if len(rest) != 1 {
			fmt.Fprintln(os.Stderr, "delete 需要一个合集ID")
			return 2
		}
		return reportMutation(e.mgr.DeleteCollection(rest[0]))
	case "rename":
		if len(rest) != 2 {
			fmt.Fprintln(os.Stderr, "rename 需要合集ID和新名称")
			return 2
		}
		return reportMutation(e.mgr.RenameCollection(rest[0], rest[1]))
	case "add":
		if len(rest) != 2 {
			fmt.Fprintln(os.Stderr, "add 需要合集ID和视频ID")
			return 2
		}
		return reportMutation(e.mgr.AddToCollection(rest[0], rest[1]))
	case "remove":
		if len(rest) != 2 {
			fmt.Fprintln(os.Stderr, "remove 需要合集ID和视频ID")
			return 2
		}
		return reportMutation(e.mgr.RemoveFromCollection(rest[0], rest[1]))
	case "list":
		cols := e.mgr.Collections()
		if !isTTY(os.Stdout) {
			enc := json.NewEncoder(os.Stdout)
			_ = enc.Encode(cols)
			return 0
		}
		if len(cols) == 0 {
			fmt.Fprintln(os.Stdout, "（空）")
			return 0
		}
		for _, c := range cols {
			fmt.Fprintf(os.Stdout, "%s  %-20s %d 个视频\n", c.ID, c.Name, len(c.VideoIDs))
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "未知子命令：%q\n", sub)
		return 2
	}
}

func rmCmd(e *env, args []string) int {
	if hasHelp(args) {
		fmt.Fprint(os.Stdout, "用法：\n  vlpe rm <视频ID>\n\n把视频移出媒体库（不触碰磁盘上的原文件）。\n")
		return 0
	}
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "rm 需要一个视频ID")
		return 2
	}
	return reportMutation(e.mgr.RemoveVideo(args[0]))
}

func renameCmd(e *env, args []string) int {
	if hasHelp(args) {
		fmt.Fprint(os.Stdout, "用法：\n  vlpe rename <视频ID> <新标题>\n")
		return 0
	}
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "rename 需要视频ID和新标题")
		return 2
	}
	return reportMutation(e.mgr.RenameVideo(args[0], args[1]))
}

func reportMutation(err error) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "失败：%v\n", err)
		return 1
	}
	return 0
}

// codeSuffix 把稳定错误码格式化为提示后缀；无码错误返回空串。
func codeSuffix(code string) string {
	if code == "" {
		return ""
	}
	return " [" + code + "]"
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func hasHelp(args []string) bool {
	for _, a := range args {
		if isHelp(a) {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  vlpe <命令> [参数] [--data-dir <目录>] [--log-level <级别>]

命令：
  import      导入文件或目录
  list        列出媒体库
  stats       输出媒体库计数
  collection  管理合集
  play        播放一个视频（终端控制）
  rm          移出媒体库
  rename      重命名视频标题

使用 "vlpe <命令> --help" 查看详细说明。
`)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
