// Package logx 提供全局 zerolog 的一次性初始化与按组件取 logger。
package logx

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 是日志初始化选项。
type Config struct {
	Level  string    // "debug"/"info"/...；空则看 VLPE_LOG_LEVEL，再退回 info
	Output io.Writer // 默认 os.Stderr（stdout 留给结构化输出）
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure 初始化全局 logger，只生效一次。
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		} else if env := os.Getenv("VLPE_LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		w := cfg.Output
		if w == nil {
			w = os.Stderr
		}

		base = zerolog.New(w).With().Timestamp().Logger()
	})
}

// With 返回带 component 字段的 logger（未 Configure 时按默认配置初始化）。
func With(component string) zerolog.Logger {
	Configure(Config{})
	return base.With().Str("component", component).Logger()
}
