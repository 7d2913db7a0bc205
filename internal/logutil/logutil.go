// Package logutil builds the slog handler behind devup's diagnostic output.
package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/giantswarm/devup/internal/sentinel"
)

// Format selects the handler's output encoding.
type Format string

const (
	// FormatText is charmbracelet/log's human-readable output.
	FormatText Format = "text"
	// FormatJSON is one JSON object per record.
	FormatJSON Format = "json"
	// FormatLogfmt is slog's key=value text handler.
	FormatLogfmt Format = "logfmt"
)

const (
	// ErrUnknownLevel is returned for a level name outside debug/info/warn/error.
	ErrUnknownLevel = sentinel.Error("unknown log level")
	// ErrUnknownFormat is returned for a format name outside text/json/logfmt.
	ErrUnknownFormat = sentinel.Error("unknown log format")
)

// ParseLevel maps a level name to a slog.Level. Matching is case-insensitive
// and "warning" is accepted for warn.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
}

// ParseFormat validates a format name. An empty name means FormatText.
func ParseFormat(format string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		return FormatText, nil
	}
	if slices.Contains([]Format{FormatText, FormatJSON, FormatLogfmt}, f) {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// NewHandler returns a handler writing to w at the named level and format.
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	switch f {
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}), nil
	case FormatLogfmt:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}), nil
	default:
		return newCharmHandler(w, lvl), nil
	}
}

func newCharmHandler(w io.Writer, level slog.Level) slog.Handler {
	//nolint:gosec // G115: level comes from ParseLevel.
	lvl := int32(level)

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(lvl),
		Formatter:       charmlog.TextFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "devup",
	})
	logger.SetColorProfile(termenv.ColorProfile())

	return logger
}
