package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dynjoint/internal/scenario"
)

// CanvasSVG draws every set braille dot of a canvas as a circle.
func CanvasSVG(canvas *Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ffff">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := int(canvas.Grid[row][col] - blank)
			if pattern <= 0 {
				continue
			}
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := range 4 {
				for dx := range 2 {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesSVG draws a named series against time as a path, with dashed
// lines for finite bounds. Infinite values are clamped like PlotSeries.
func SeriesSVG(samples []scenario.Sample, name string, width, height int, bounds ...float64) (string, error) {
	values, err := Extract(samples, name)
	if err != nil {
		return "", err
	}
	if len(values) < 2 {
		return "", fmt.Errorf("viz: need at least two samples")
	}
	values = Clamp(values)

	minX, maxX := samples[0].Time, samples[len(samples)-1].Time
	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	var lines []float64
	for _, b := range bounds {
		if math.IsInf(b, 0) || math.IsNaN(b) {
			continue
		}
		lines = append(lines, b)
		minY = math.Min(minY, b)
		maxY = math.Max(maxY, b)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	px := func(t float64) float64 { return (t - minX) / rangeX * float64(width) }
	py := func(v float64) float64 { return float64(height) - (v-minY)/rangeY*float64(height) }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, b := range lines {
		fmt.Fprintf(&sb, "<line x1=\"0\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\" stroke=\"#666688\" stroke-dasharray=\"4 4\"/>\n", py(b), width, py(b))
	}

	sb.WriteString(`<path fill="none" stroke="#00ffff" stroke-width="1.5" d="M`)
	for i, v := range values {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", px(samples[i].Time), py(v))
	}
	sb.WriteString("\"/>\n")
	fmt.Fprintf(&sb, "<text x=\"4\" y=\"14\" fill=\"#888899\" font-family=\"monospace\" font-size=\"12\">%s</text>\n", name)
	sb.WriteString("</svg>\n")
	return sb.String(), nil
}
