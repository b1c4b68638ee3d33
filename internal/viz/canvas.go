package viz

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/san-kum/dynjoint/internal/scenario"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a dot at (x, y) in sub-pixel coordinates. The canvas is
// Width*2 by Height*4 dots.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawDisc fills a small disc of radius r dots.
func (c *Canvas) DrawDisc(cx, cy, r int) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				c.Set(cx+x, cy+y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Scene is a snapshot of the parts and the link, projected onto the X/Z
// plane.
type Scene struct {
	Source, Target mgl64.Vec3
	Ends           []mgl64.Vec3
	Linked         bool
}

// SceneOf reads the current poses from a runner.
func SceneOf(r *scenario.Runner) Scene {
	rig := r.Rig()
	var s Scene
	if p, err := rig.ObjectPose(r.Source().Object()); err == nil {
		s.Source = p.Position
	}
	if p, err := rig.ObjectPose(r.Target().Object()); err == nil {
		s.Target = p.Position
	}
	for _, v := range r.Constraints() {
		if v.Kind != physics.KindSphericalEnd {
			continue
		}
		if p, err := rig.ObjectPose(v.Object); err == nil {
			s.Ends = append(s.Ends, p.Position)
		}
	}
	s.Linked = r.Live()
	return s
}

func (s Scene) Render(w, h int) string { return s.Draw(w, h).String() }

// Draw puts the scene on a canvas of w by h cells. The view is fitted to the
// points with some margin, horizontal is Z and vertical is X.
func (s Scene) Draw(w, h int) *Canvas {
	c := NewCanvas(w, h)
	pts := append([]mgl64.Vec3{s.Source, s.Target}, s.Ends...)

	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		for i := range 3 {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	span := math.Max(math.Max(hi[2]-lo[2], hi[0]-lo[0]), 1)
	margin := span * 0.15
	scale := float64(w*2-1) / (span + 2*margin)
	midX := (lo[0] + hi[0]) / 2
	rows := float64(h*4 - 1)

	project := func(p mgl64.Vec3) (int, int) {
		x := (p[2] - lo[2] + margin) * scale
		y := rows/2 - (p[0]-midX)*scale
		return int(math.Round(x)), int(math.Round(y))
	}

	sx, sy := project(s.Source)
	tx, ty := project(s.Target)
	if s.Linked {
		c.DrawLine(sx, sy, tx, ty)
	}
	c.DrawDisc(sx, sy, 2)
	c.DrawDisc(tx, ty, 2)
	for _, e := range s.Ends {
		ex, ey := project(e)
		c.DrawDisc(ex, ey, 1)
	}
	return c
}
