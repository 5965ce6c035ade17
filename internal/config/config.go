// Package config 负责发现与合并运行配置：vlpe.json（可选）+ CLI 覆盖 + 内置默认值。
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/VLPE/internal/store"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultConcurrency 是批量导入的并发默认值。
	DefaultConcurrency = 4
	// DefaultPreviewQuality 是预览图 JPEG 压缩质量的默认值。
	DefaultPreviewQuality = 80
	// DefaultSampleIntervalMS 是播放位置采样间隔的默认值（毫秒）。
	DefaultSampleIntervalMS = 500
)

// CLIArgs 只包含 CLI 暴露的覆盖项，并保留“是否显式指定”的信息，
// 保证覆盖优先级可实现（例如 --data-dir 必须能覆盖 config.data_dir）。
type CLIArgs struct {
	DataDir    string
	DataDirSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 vlpe.json 的解析结构。所有字段可选。
type FileConfig struct {
	DataDir          string `json:"data_dir"`
	FFmpegBin        string `json:"ffmpeg_bin"`
	FFprobeBin       string `json:"ffprobe_bin"`
	PreviewQuality   int    `json:"preview_quality"`
	SampleIntervalMS int    `json:"sample_interval_ms"`
	Concurrency      int    `json:"concurrency"`
	LogLevel         string `json:"log_level"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，
// 不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// DataDir 是 library.json / collections.json 所在目录。
	DataDir string

	FFmpegBin  string
	FFprobeBin string

	PreviewQuality   int
	SampleIntervalMS int
	Concurrency      int
	LogLevel         string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --data-dir：尝试读取 <data-dir>/vlpe.json（可选）
// 2) 否则：尝试读取 <默认数据目录>/vlpe.json（可选；config.data_dir 可再改道）
//
// 覆盖优先级（固定）：
// - data_dir：CLI > config > 默认（用户配置目录下的 vlpe/）
// - log_level：CLI > config > 环境变量/默认（见 logx）
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	dataDir := ""
	if cli.DataDirSet {
		dataDir = absCleanFrom(cwdAbs, cli.DataDir)
	} else {
		dataDir, err = store.DefaultDir()
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: "", Err: err}
		}
	}

	cfgPath := filepath.Join(dataDir, "vlpe.json")
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// config.data_dir 只在 CLI 未显式指定时生效。
	if !cli.DataDirSet && strings.TrimSpace(fc.DataDir) != "" {
		dataDir = absCleanFrom(cwdAbs, fc.DataDir)
	}

	return merge(dataDir, cli, fc, cfgPath)
}

func merge(dataDir string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	quality := fc.PreviewQuality
	if quality == 0 {
		quality = DefaultPreviewQuality
	}
	if quality < 1 || quality > 100 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
			Err: fmt.Errorf("preview_quality 必须在 [1,100]，实际是 %d", fc.PreviewQuality)}
	}

	interval := fc.SampleIntervalMS
	if interval == 0 {
		interval = DefaultSampleIntervalMS
	}
	if interval < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
			Err: fmt.Errorf("sample_interval_ms 不能为负：%d", fc.SampleIntervalMS)}
	}

	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围建议 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	level := ""
	if cli.LogLevelSet {
		level = cli.LogLevel
	} else {
		level = strings.TrimSpace(fc.LogLevel)
	}
	if err := validateLogLevel(level); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	return EffectiveConfig{
		DataDir:          dataDir,
		FFmpegBin:        strings.TrimSpace(fc.FFmpegBin),
		FFprobeBin:       strings.TrimSpace(fc.FFprobeBin),
		PreviewQuality:   quality,
		SampleIntervalMS: interval,
		Concurrency:      concurrency,
		LogLevel:         level,
	}, nil
}

func validateLogLevel(level string) error {
	switch level {
	case "", "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log_level 只能是 trace/debug/info/warn/error，实际是 %q", level)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
