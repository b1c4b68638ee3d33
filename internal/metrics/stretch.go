package metrics

import (
	"math"

	"github.com/san-kum/dynjoint/internal/scenario"
)

// MaxStretch is the largest distance past the maximum link length.
type MaxStretch struct {
	name    string
	limit   float64
	stretch float64
}

func NewMaxStretch(maxLength float64) *MaxStretch {
	return &MaxStretch{name: "max_stretch", limit: maxLength}
}

func (m *MaxStretch) Name() string { return m.name }

func (m *MaxStretch) Observe(s scenario.Sample) {
	if !s.Live || math.IsInf(m.limit, 1) {
		return
	}
	m.stretch = math.Max(m.stretch, s.Distance-m.limit)
}

func (m *MaxStretch) Value() float64 { return m.stretch }

func (m *MaxStretch) Reset() { m.stretch = 0 }

// WithinBounds is the share of live samples whose distance stayed inside
// [min, max].
type WithinBounds struct {
	name       string
	min, max   float64
	violations int
	samples    int
}

func NewWithinBounds(min, max float64) *WithinBounds {
	return &WithinBounds{name: "within_bounds", min: min, max: max}
}

func (w *WithinBounds) Name() string {
	return w.name
}

func (w *WithinBounds) Observe(s scenario.Sample) {
	if !s.Live {
		return
	}
	w.samples++
	if s.Distance < w.min || s.Distance > w.max {
		w.violations++
	}
}

func (w *WithinBounds) Value() float64 {
	if w.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(w.violations)/float64(w.samples)
}

func (w *WithinBounds) Reset() {
	w.violations = 0
	w.samples = 0
}
