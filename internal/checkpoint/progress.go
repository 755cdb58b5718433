package checkpoint

import (
	"fmt"
	"os"
	"time"
)

// ProgressLog appends timestamped progress lines to a per-conference
// log file. The log is a write-only diagnostic trail for external
// monitoring (tail -f); nothing ever parses it back in.
type ProgressLog struct {
	file *os.File
}

// OpenProgressLog opens the log for appending, creating it if needed.
func OpenProgressLog(path string) (*ProgressLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening progress log: %w", err)
	}
	return &ProgressLog{file: file}, nil
}

// Infof appends an INFO line.
func (l *ProgressLog) Infof(format string, args ...any) {
	l.write("INFO", format, args...)
}

// Warnf appends a WARNING line.
func (l *ProgressLog) Warnf(format string, args ...any) {
	l.write("WARNING", format, args...)
}

// Errorf appends an ERROR line.
func (l *ProgressLog) Errorf(format string, args ...any) {
	l.write("ERROR", format, args...)
}

func (l *ProgressLog) write(level, format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] [%s] %s\n", timestamp, level, fmt.Sprintf(format, args...))
	// A failed progress line must never abort the run.
	_, _ = l.file.WriteString(line)
}

// Close flushes and closes the log file.
func (l *ProgressLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
