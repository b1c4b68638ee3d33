package tui

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// logTail keeps the last few log lines for display inside the alt screen,
// where writing to stderr would tear the frame.
type logTail struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLogTail(max int) *logTail { return &logTail{max: max} }

func (t *logTail) Levels() []logrus.Level { return logrus.AllLevels }

func (t *logTail) Fire(e *logrus.Entry) error {
	line := fmt.Sprintf("%-5.5s %s", e.Level, e.Message)
	for _, k := range []string{"time", "force", "part", "unbreakable"} {
		if v, ok := e.Data[k]; ok {
			line += fmt.Sprintf(" %s=%v", k, v)
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
	return nil
}

func (t *logTail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}
