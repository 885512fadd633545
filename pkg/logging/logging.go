package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel defines the severity of a log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelQuiet suppresses everything below Error. Used for scheduled runs
	// where the happy path must produce no output at all.
	LevelQuiet
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelQuiet:
		return "QUIET"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError, LevelQuiet:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogEntry is the structured log entry passed to the TUI.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

var (
	defaultLogger *slog.Logger
	tuiLogChannel chan LogEntry
	isTuiMode     bool
)

const tuiChannelBufferSize = 2048

// InitForCLI initializes the logging system for CLI mode. Entries at or
// above filterLevel are written as text to output.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	isTuiMode = false
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: filterLevel.SlogLevel(),
	})
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// InitForTUI initializes the logging system for TUI mode. Entries are sent
// to the returned channel instead of being written anywhere; the dashboard
// drains it into its log pane.
func InitForTUI(filterLevel LogLevel) <-chan LogEntry {
	isTuiMode = true
	tuiLogChannel = make(chan LogEntry, tuiChannelBufferSize)
	// Fallback handler so logging before the TUI takes over still lands
	// somewhere visible.
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: filterLevel.SlogLevel(),
	}))
	return tuiLogChannel
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	if isTuiMode {
		if tuiLogChannel != nil {
			entry := LogEntry{
				Timestamp: time.Now(),
				Level:     level,
				Subsystem: subsystem,
				Message:   msg,
				Err:       err,
			}
			select {
			case tuiLogChannel <- entry:
			default:
				// Channel full: drop rather than block a pipeline goroutine.
			}
		}
		return
	}

	if defaultLogger == nil {
		// Logging before InitForCLI; stderr keeps errors from vanishing.
		if level >= LevelWarn {
			fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", level, subsystem, msg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  error: %v\n", err)
			}
		}
		return
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// CloseTUIChannel closes the TUI log channel. Should be called on application shutdown.
func CloseTUIChannel() {
	if tuiLogChannel != nil {
		close(tuiLogChannel)
	}
}
