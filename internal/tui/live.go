package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/dynjoint/internal/scenario"
	"github.com/san-kum/dynjoint/internal/viz"
)

const (
	width       = 70
	height      = 12
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

var _ scenario.Observer = (*LiveRenderer)(nil)

// LiveRenderer redraws the scene of a runner after each step, at most
// frameRate times a second.
type LiveRenderer struct {
	out       io.Writer
	runner    *scenario.Runner
	frameRate int
	lastFrame time.Time
	forces    []float64
}

func NewLiveRenderer(out io.Writer, r *scenario.Runner, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{out: out, runner: r, frameRate: frameRate}
}

func (r *LiveRenderer) OnStep(s scenario.Sample) {
	r.forces = append(r.forces, s.Force)
	if len(r.forces) > width {
		r.forces = r.forces[1:]
	}

	// The last frame always renders so the final state stays on screen.
	if !r.runner.Done() && s.Live {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
	}
	r.lastFrame = time.Now()
	r.render(s)
}

func (r *LiveRenderer) render(s scenario.Sample) {
	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.2fs  %s\n", r.runner.Config().Name, s.Time, viz.Status(s.Live, s.Unbreakable))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range strings.Split(strings.TrimSuffix(viz.SceneOf(r.runner).Render(width, height), "\n"), "\n") {
		b.WriteString("  " + row + "\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	fmt.Fprintf(&b, "  distance=%s force=%s torque=%s\n", viz.Num(s.Distance), viz.Num(s.Force), viz.Num(s.Torque))
	b.WriteString("  " + viz.Sparkline(r.forces, width) + "\n")

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
