package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

type Options struct {
	Service string
	Env     string
	Level   string
	// devではコンソール形式で出す
	Pretty    bool
	AddSource bool
	Output    io.Writer // nilならstdout
}

// New はJSON形式のzerolog.Loggerを作り、グローバル(log.Logger)にも設定する。
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", opts.Service).
		Str("env", opts.Env)
	if opts.AddSource {
		ctx = ctx.Caller()
	}
	base := ctx.Logger()

	zlog.Logger = base
	zerolog.DefaultContextLogger = &base
	return base
}

// 何も出さないlogger（テスト用）
func Discard() zerolog.Logger {
	return zerolog.Nop()
}

func ParseLevel(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
