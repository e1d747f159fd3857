// Package logging builds the service's slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures where and how verbosely the service logs.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	Stdout     bool
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to stdout, a rotated file, or both.
// The returned closer releases the log file and is never nil.
func New(opts Options) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize, // megabytes
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		closer = lj
		w = lj
		if opts.Stdout {
			w = io.MultiWriter(os.Stdout, lj)
		}
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(NewContextHandler(h)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
