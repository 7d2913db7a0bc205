package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	fcolor "github.com/fatih/color"
)

// MessageType selects the symbol and color of a line.
type MessageType int

const (
	// HeaderType marks the start of a pipeline step.
	HeaderType MessageType = iota
	// InfoType is a neutral progress line.
	InfoType
	// WarningType is a non-fatal problem.
	WarningType
	// ErrorType is a failure. Fatal or not is up to the caller.
	ErrorType
	// SuccessType closes a step or sub-task.
	SuccessType
)

type style struct {
	symbol string
	color  *fcolor.Color
}

func styleFor(t MessageType) style {
	switch t {
	case HeaderType:
		return style{symbol: "==> ", color: fcolor.New(fcolor.Bold, fcolor.FgCyan)}
	case InfoType:
		return style{symbol: "ℹ ", color: fcolor.New(fcolor.FgBlue)}
	case WarningType:
		return style{symbol: "⚠ ", color: fcolor.New(fcolor.FgYellow)}
	case ErrorType:
		return style{symbol: "✗ ", color: fcolor.New(fcolor.FgRed)}
	case SuccessType:
		return style{symbol: "✔ ", color: fcolor.New(fcolor.FgGreen)}
	default:
		return style{color: fcolor.New(fcolor.Reset)}
	}
}

// Write prints one labeled line of the given type. A nil writer means
// os.Stdout. Continuation lines of multi-line content are indented under
// the first line's text.
func Write(w io.Writer, t MessageType, format string, args ...any) {
	if w == nil {
		w = os.Stdout
	}

	s := styleFor(t)
	content := indent(fmt.Sprintf(format, args...), s.symbol)

	if t == HeaderType {
		// Blank line before each header keeps steps visually apart.
		if _, err := fmt.Fprintln(w); err != nil {
			reportWriteError(err)
			return
		}
	}

	if _, err := s.color.Fprintf(w, "%s%s\n", s.symbol, content); err != nil {
		reportWriteError(err)
	}
}

// Headerf prints a step header.
func Headerf(w io.Writer, format string, args ...any) { Write(w, HeaderType, format, args...) }

// Infof prints an informational line.
func Infof(w io.Writer, format string, args ...any) { Write(w, InfoType, format, args...) }

// Warningf prints a warning line.
func Warningf(w io.Writer, format string, args ...any) { Write(w, WarningType, format, args...) }

// Errorf prints an error line.
func Errorf(w io.Writer, format string, args ...any) { Write(w, ErrorType, format, args...) }

// Successf prints a success line.
func Successf(w io.Writer, format string, args ...any) { Write(w, SuccessType, format, args...) }

// Raw copies text verbatim, used to echo a failed command's stderr.
func Raw(w io.Writer, text string) {
	if w == nil {
		w = os.Stdout
	}
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(w, text); err != nil {
		reportWriteError(err)
	}
}

// SyncWriter serializes writes to an underlying writer. Step lines and
// streamed command output share one writer, and the tunnel step writes to it
// from two goroutines.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// Synchronized returns w wrapped in a SyncWriter. A SyncWriter is returned
// as is, and a nil w means os.Stdout.
func Synchronized(w io.Writer) *SyncWriter {
	if s, ok := w.(*SyncWriter); ok {
		return s
	}
	if w == nil {
		w = os.Stdout
	}
	return &SyncWriter{w: w}
}

// Write implements io.Writer.
func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func reportWriteError(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "notify: write failed: %v\n", err)
}

func indent(content, symbol string) string {
	if symbol == "" || !strings.Contains(content, "\n") {
		return content
	}

	pad := strings.Repeat(" ", len([]rune(symbol)))
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
