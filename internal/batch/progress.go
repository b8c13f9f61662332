package batch

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Progress receives per-file updates from Run. Calls are serialized.
type Progress interface {
	Start(total int)
	FileDone(done, total int, file string, err error)
	Finish(elapsed time.Duration)
}

// ConsoleProgress draws a progress bar, typically on stderr.
type ConsoleProgress struct {
	w        io.Writer
	width    int
	interval time.Duration
	start    time.Time
	last     time.Time
	now      func() time.Time
}

// NewConsoleProgress draws a bar of width cells to w.
func NewConsoleProgress(w io.Writer, width int) *ConsoleProgress {
	if width <= 0 {
		width = 40
	}
	return &ConsoleProgress{w: w, width: width, interval: 100 * time.Millisecond, now: time.Now}
}

func (c *ConsoleProgress) Start(total int) {
	c.start = c.now()
	c.last = time.Time{}
	_, _ = fmt.Fprintf(c.w, "Scanning %d files\n", total)
}

func (c *ConsoleProgress) FileDone(done, total int, file string, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(c.w, "\rfailed: %s: %v\n", file, err)
	}
	now := c.now()
	if now.Sub(c.last) < c.interval && done < total {
		return
	}
	c.last = now
	_, _ = fmt.Fprint(c.w, c.line(done, total, now.Sub(c.start)))
}

func (c *ConsoleProgress) Finish(elapsed time.Duration) {
	_, _ = fmt.Fprintf(c.w, "\nCompleted in %v\n", elapsed.Round(time.Millisecond))
}

func (c *ConsoleProgress) line(done, total int, elapsed time.Duration) string {
	if total <= 0 {
		return ""
	}
	filled := c.width * done / total
	bar := strings.Repeat("#", filled) + strings.Repeat(".", c.width-filled)
	s := fmt.Sprintf("\r[%s] %d/%d (%.1f%%)", bar, done, total, float64(done)*100/float64(total))
	if done > 0 && done < total && elapsed > 0 {
		eta := time.Duration(float64(elapsed) * float64(total-done) / float64(done))
		s += fmt.Sprintf(" ETA %v", eta.Round(time.Second))
	}
	return s
}

// LogProgress reports progress through slog every interval files.
type LogProgress struct {
	logger   *slog.Logger
	interval int
	lastLog  int
}

// NewLogProgress logs every interval files; nil uses the default logger.
func NewLogProgress(logger *slog.Logger, interval int) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10
	}
	return &LogProgress{logger: logger, interval: interval}
}

func (l *LogProgress) Start(total int) {
	l.lastLog = 0
	l.logger.Info("batch started", "total", total)
}

func (l *LogProgress) FileDone(done, total int, file string, err error) {
	if err != nil {
		l.logger.Warn("file failed", "file", file, "error", err)
	}
	if done-l.lastLog >= l.interval || done == total {
		l.lastLog = done
		l.logger.Info("batch progress", "done", done, "total", total)
	}
}

func (l *LogProgress) Finish(elapsed time.Duration) {
	l.logger.Info("batch completed", "elapsed", elapsed.Round(time.Millisecond))
}

// syncProgress serializes calls from concurrent workers and counts files.
type syncProgress struct {
	mu    sync.Mutex
	p     Progress
	total int
	done  int
}

func newSyncProgress(p Progress, total int) *syncProgress {
	if p == nil {
		return nil
	}
	p.Start(total)
	return &syncProgress{p: p, total: total}
}

func (s *syncProgress) fileDone(file string, err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	s.p.FileDone(s.done, s.total, file, err)
}

func (s *syncProgress) finish(elapsed time.Duration) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Finish(elapsed)
}
