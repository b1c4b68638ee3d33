package tui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/scenario"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	log, _ := test.NewNullLogger()
	tail := newLogTail(3)
	log.AddHook(tail)
	return newModel(log, tail)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMenuStartsPreset(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.handleKey(key("enter"))

	if m.state != stateSim {
		t.Fatalf("expected sim state, got %v", m.state)
	}
	if m.runner == nil {
		t.Fatalf("expected a runner, got error %v", m.err)
	}
	if m.selected != m.presets[0] {
		t.Errorf("expected %s, got %s", m.presets[0], m.selected)
	}
	if !strings.Contains(m.View(), "LIVE") {
		t.Error("expected a live link in the view")
	}
}

func TestSimKeys(t *testing.T) {
	m := newTestModel(t)
	m.selected = "default"
	m.start()

	m, _ = m.handleKey(key("u"))
	m.step()
	if !m.runner.Unbreakable() {
		t.Error("expected the override to make the link unbreakable")
	}

	rate := m.runner.PullRate()
	m, _ = m.handleKey(key("+"))
	if m.runner.PullRate() != rate+pullStep {
		t.Errorf("expected pull rate %v, got %v", rate+pullStep, m.runner.PullRate())
	}

	m, _ = m.handleKey(key("]"))
	if m.speed != 2 {
		t.Errorf("expected speed 2, got %d", m.speed)
	}

	m, _ = m.handleKey(key(" "))
	if !m.paused {
		t.Error("expected paused")
	}

	m, _ = m.handleKey(key("d"))
	if m.runner.Live() {
		t.Error("expected the link dropped")
	}
	if !strings.Contains(m.View(), "no live constraints") {
		t.Error("expected an empty constraint table after drop")
	}

	m, _ = m.handleKey(key("r"))
	if !m.runner.Live() || m.paused {
		t.Error("expected restart to bring back a live, running link")
	}

	m, _ = m.handleKey(key("esc"))
	if m.state != stateMenu || m.runner != nil {
		t.Error("expected esc to return to the menu")
	}
}

func TestUnknownPresetShowsError(t *testing.T) {
	m := newTestModel(t)
	m.selected = "nope"
	m.start()
	if m.runner != nil || m.err == nil {
		t.Fatal("expected an error for an unknown preset")
	}
	if !strings.Contains(m.View(), "not found") {
		t.Errorf("expected the error in the view, got:\n%s", m.View())
	}
}

func TestLogTailKeepsLast(t *testing.T) {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	tail := newLogTail(2)
	log.AddHook(tail)

	log.Info("one")
	log.Info("two")
	log.WithField("force", 3).Warn("three")

	lines := tail.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
	if !strings.Contains(lines[1], "three") || !strings.Contains(lines[1], "force=3") {
		t.Errorf("unexpected last line %q", lines[1])
	}
}

func TestLiveRendererDrawsFinalFrame(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Steps = 3
	log, _ := test.NewNullLogger()
	r, err := scenario.NewRunner(cfg, log)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	lr := NewLiveRenderer(&out, r, 1)
	r.AddObserver(lr)
	for !r.Done() {
		if err := r.Step(); err != nil {
			t.Fatal(err)
		}
	}

	frames := strings.Count(out.String(), clearScreen)
	if frames != 2 {
		t.Errorf("expected first and final frames only, got %d", frames)
	}
	if !strings.Contains(out.String(), cfg.Name) {
		t.Error("expected the scenario name in the frame")
	}
}
