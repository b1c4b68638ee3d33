package metrics

import (
	"math"

	"github.com/san-kum/dynjoint/internal/scenario"
)

// PeakForce is the largest force seen, including the load that broke the
// link. A rigid connector stretched past its bounds reports +Inf.
type PeakForce struct {
	name string
	peak float64
}

func NewPeakForce() *PeakForce {
	return &PeakForce{name: "peak_force"}
}

func (p *PeakForce) Name() string { return p.name }

func (p *PeakForce) Observe(s scenario.Sample) {
	p.peak = math.Max(p.peak, s.Force)
}

func (p *PeakForce) Value() float64 { return p.peak }

func (p *PeakForce) Reset() { p.peak = 0 }

// MeanForce averages the finite forces seen while the link was live.
type MeanForce struct {
	name    string
	sum     float64
	samples int
}

func NewMeanForce() *MeanForce {
	return &MeanForce{name: "mean_force"}
}

func (m *MeanForce) Name() string { return m.name }

func (m *MeanForce) Observe(s scenario.Sample) {
	if !s.Live || math.IsInf(s.Force, 0) {
		return
	}
	m.sum += s.Force
	m.samples++
}

func (m *MeanForce) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanForce) Reset() {
	m.sum = 0
	m.samples = 0
}
