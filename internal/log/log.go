package log

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

// NewSlogLogger builds the process logger from cfg and installs it as the slog
// default. Every record carries the service name.
func NewSlogLogger(cfg config.Log) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.Output == config.LogOutputStderr {
		w = os.Stderr
	}

	logger := slog.New(newHandler(cfg, w))
	if cfg.ServiceName != "" {
		logger = logger.With(slog.String("app", cfg.ServiceName))
	}
	slog.SetDefault(logger)

	return logger
}

func newHandler(cfg config.Log, w io.Writer) slog.Handler {
	if cfg.Format == config.LogFormatJSON {
		return contextHandler{next: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     cfg.Level,
			AddSource: cfg.AddSource,
		})}
	}

	return contextHandler{next: tint.NewHandler(w, &tint.Options{
		Level:      cfg.Level,
		AddSource:  cfg.AddSource,
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(w),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// errors in red
			if _, ok := a.Value.Any().(error); ok && a.Value.Kind() == slog.KindAny {
				return tint.Attr(9, a)
			}
			return a
		},
	})}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
