package scenario_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/joint"
	"github.com/san-kum/dynjoint/internal/metrics"
	"github.com/san-kum/dynjoint/internal/physics/planar"
	"github.com/san-kum/dynjoint/internal/scenario"
)

func kinds(events []scenario.Event) []scenario.EventKind {
	out := make([]scenario.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

var _ = Describe("Runner", func() {
	var (
		cfg *config.Config
		log *logrus.Logger
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		log, _ = test.NewNullLogger()
	})

	newRunner := func() *scenario.Runner {
		r, err := scenario.NewRunner(cfg, log)
		Expect(err).NotTo(HaveOccurred())
		return r
	}

	Describe("creating the link", func() {
		It("builds the three constraints of the assembly", func() {
			r := newRunner()

			views := r.Constraints()
			Expect(views).To(HaveLen(3))
			Expect(views[0].Params.AngleLimit).To(Equal(20.0))
			Expect(views[1].Params.AngleLimit).To(Equal(20.0))

			conn := views[2].Params
			Expect(conn.LinearMin).To(Equal(1.0))
			Expect(conn.LinearMax).To(Equal(6.0))
			Expect(conn.BreakForce).To(Equal(500.0))
			Expect(math.IsInf(conn.BreakTorque, 1)).To(BeTrue())

			_, _, cons := r.Rig().Counts()
			Expect(cons).To(Equal(3), "the simple link should have been replaced")
		})

		It("uses the simple link for the rigid variant", func() {
			cfg.Variant = joint.VariantRigid
			r := newRunner()

			Expect(r.Link().IsJointUnlocked()).To(BeFalse())
			Expect(r.Constraints()).To(HaveLen(1))
		})

		It("rejects an invalid scenario", func() {
			cfg.Steps = 0
			_, err := scenario.NewRunner(cfg, log)
			Expect(err).To(MatchError(config.ErrInvalid))
		})
	})

	Describe("pulling the target away", func() {
		It("breaks the link once the connector passes its max length", func() {
			r := newRunner()
			for _, m := range metrics.Standard(cfg) {
				r.AddMetric(m)
			}

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Broken).To(BeTrue())
			// pull starts at 0.5s at 2 u/s, so the 6 unit bound goes at 1.0s
			Expect(res.BreakTime).To(BeNumerically("~", 1.0, 2*cfg.Dt))
			Expect(res.Metrics["break_time"]).To(BeNumerically(">", 0))
			Expect(r.Target().HasParent()).To(BeFalse())
			Expect(r.Target().Breaks()).To(HaveLen(1))
			// a rigid connector breaks with an infinite load
			Expect(math.IsInf(res.Metrics["peak_force"], 1)).To(BeTrue())

			Expect(kinds(res.Events)).To(Equal([]scenario.EventKind{
				scenario.EventCreated,
				scenario.EventUnbreakable,
				scenario.EventRestored,
				scenario.EventBreak,
				scenario.EventDropped,
			}))

			objs, bodies, cons := r.Rig().Counts()
			Expect([]int{objs, bodies, cons}).To(Equal([]int{2, 2, 0}))
		})

		It("survives while an unbreakable window covers the stretch", func() {
			r := newRunner()
			r.AddMetric(metrics.NewPeakForce())
			r.Override(true)

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Broken).To(BeFalse())
			Expect(r.Live()).To(BeTrue())
			Expect(math.IsInf(res.Metrics["peak_force"], 1)).To(BeTrue())

			last := res.Samples[len(res.Samples)-1]
			Expect(last.Distance).To(BeNumerically(">", 6))
			Expect(last.Unbreakable).To(BeTrue())
		})

		It("restores the thresholds when the override ends", func() {
			r := newRunner()
			r.Override(true)
			Expect(r.Step()).To(Succeed())
			Expect(r.Constraints()[2].Params.Unbreakable()).To(BeTrue())

			r.Override(false)
			Expect(r.Step()).To(Succeed())
			Expect(r.Constraints()[2].Params.BreakForce).To(Equal(500.0))
		})

		DescribeTable("breaks the rigid preset once the pull starts",
			func(engine string) {
				cfg = config.GetPreset("rigid")
				cfg.Engine = engine
				r := newRunner()
				r.AddMetric(metrics.NewPeakForce())

				res, err := r.Run(context.Background())
				Expect(err).NotTo(HaveOccurred())

				Expect(res.Broken).To(BeTrue())
				Expect(res.BreakTime).To(BeNumerically(">=", cfg.Pull.Start-cfg.Dt))
				Expect(res.BreakTime).To(BeNumerically("<", cfg.Pull.Start+0.5))
				Expect(math.IsInf(res.Metrics["peak_force"], 1)).To(BeTrue())
				Expect(r.Live()).To(BeFalse())
				Expect(r.Target().HasParent()).To(BeFalse())

				_, _, cons := r.Rig().Counts()
				Expect(cons).To(BeZero())
			},
			Entry("on the reference engine", config.EngineWorld),
			Entry("on the planar engine", config.EnginePlanar),
		)

		It("never breaks with the locked preset", func() {
			cfg = config.GetPreset("locked")
			res, err := newRunner().Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Broken).To(BeFalse())
		})
	})

	Describe("dropping", func() {
		It("is idempotent and releases every constraint", func() {
			r := newRunner()
			Expect(r.Drop()).To(Succeed())
			Expect(r.Drop()).To(Succeed())

			_, _, cons := r.Rig().Counts()
			Expect(cons).To(BeZero())
			Expect(r.Constraints()).To(BeEmpty())
		})

		It("stops early when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			res, err := newRunner().Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Samples).To(BeEmpty())
		})
	})

	Describe("on the planar engine", func() {
		BeforeEach(func() {
			cfg = config.GetPreset("planar")
		})

		It("maps the assembly onto cp joints and removes them on drop", func() {
			r := newRunner()
			space, ok := r.Rig().(*planar.Space)
			Expect(ok).To(BeTrue())
			// two pivots with rotary limits plus a slide joint with a locked rotary
			Expect(space.Joints()).To(Equal(6))

			Expect(r.Drop()).To(Succeed())
			Expect(space.Joints()).To(BeZero())
			_, bodies, _ := space.Counts()
			Expect(bodies).To(Equal(2))
		})

		It("keeps the link while unbreakable", func() {
			r := newRunner()
			r.Override(true)
			for range 60 {
				Expect(r.Step()).To(Succeed())
			}
			Expect(r.Live()).To(BeTrue())
			Expect(r.Target().Breaks()).To(BeEmpty())
		})
	})
})
