package viz

import (
	"errors"
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dynjoint/internal/scenario"
)

// Series names accepted by PlotSeries.
const (
	SeriesDistance = "distance"
	SeriesForce    = "force"
	SeriesTorque   = "torque"
)

var ErrUnknownSeries = errors.New("viz: unknown series")

// Extract pulls one named series out of samples.
func Extract(samples []scenario.Sample, name string) ([]float64, error) {
	out := make([]float64, len(samples))
	for i, s := range samples {
		switch name {
		case SeriesDistance:
			out[i] = s.Distance
		case SeriesForce:
			out[i] = s.Force
		case SeriesTorque:
			out[i] = s.Torque
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownSeries, name)
		}
	}
	return out, nil
}

// Clamp replaces infinities with the largest finite magnitude in values, or
// 1 when nothing is finite. NaN becomes 0.
func Clamp(values []float64) []float64 {
	ceil := 0.0
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			ceil = math.Max(ceil, math.Abs(v))
		}
	}
	if ceil == 0 {
		ceil = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			out[i] = 0
		case math.IsInf(v, 1):
			out[i] = ceil
		case math.IsInf(v, -1):
			out[i] = -ceil
		default:
			out[i] = v
		}
	}
	return out
}

// PlotSeries draws a named series of a run. Distance plots carry the link
// bounds as reference lines when they are finite.
func PlotSeries(samples []scenario.Sample, name string, width, height int, bounds ...float64) (string, error) {
	values, err := Extract(samples, name)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("viz: no samples")
	}

	caption := name
	if hasInf(values) {
		caption += " (inf clamped)"
	}

	series := [][]float64{Clamp(values)}
	colors := []asciigraph.AnsiColor{asciigraph.Cyan}
	legends := []string{name}
	for _, b := range bounds {
		if math.IsInf(b, 0) || math.IsNaN(b) {
			continue
		}
		line := make([]float64, len(values))
		for i := range line {
			line[i] = b
		}
		series = append(series, line)
		colors = append(colors, asciigraph.DarkGray)
		legends = append(legends, "bound "+Num(b))
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Caption(caption),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(colors...),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	if len(series) > 1 {
		opts = append(opts, asciigraph.SeriesLegends(legends...))
	}
	return asciigraph.PlotMany(series, opts...), nil
}

func hasInf(values []float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
