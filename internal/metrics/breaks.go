package metrics

import (
	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/scenario"
)

// BreakTime is the time of the first sample without a live link, or -1 if
// the link survived.
type BreakTime struct {
	name string
	at   float64
	seen bool
}

func NewBreakTime() *BreakTime {
	return &BreakTime{name: "break_time", at: -1}
}

func (b *BreakTime) Name() string { return b.name }

func (b *BreakTime) Observe(s scenario.Sample) {
	if !s.Live && !b.seen {
		b.at = s.Time
		b.seen = true
	}
}

func (b *BreakTime) Value() float64 { return b.at }

func (b *BreakTime) Reset() {
	b.at = -1
	b.seen = false
}

// UnbreakableSteps counts the steps spent in unbreakable mode.
type UnbreakableSteps struct {
	name  string
	count int
}

func NewUnbreakableSteps() *UnbreakableSteps {
	return &UnbreakableSteps{name: "unbreakable_steps"}
}

func (u *UnbreakableSteps) Name() string { return u.name }

func (u *UnbreakableSteps) Observe(s scenario.Sample) {
	if s.Unbreakable {
		u.count++
	}
}

func (u *UnbreakableSteps) Value() float64 { return float64(u.count) }

func (u *UnbreakableSteps) Reset() { u.count = 0 }

// Standard returns the metrics reported for every run of cfg.
func Standard(cfg *config.Config) []scenario.Metric {
	return []scenario.Metric{
		NewPeakForce(),
		NewMeanForce(),
		NewMaxStretch(cfg.Link.MaxLinkLength),
		NewWithinBounds(cfg.Link.MinLinkLength, cfg.Link.MaxLinkLength),
		NewBreakTime(),
		NewUnbreakableSteps(),
	}
}
