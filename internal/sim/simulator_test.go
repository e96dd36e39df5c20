package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/pid"
	"github.com/san-kum/pidlab/internal/sim"
)

// lag is dx/dt = -x + u.
type lag struct{}

func (lag) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	in := 0.0
	if len(u) > 0 {
		in = u[0]
	}
	return dynamo.State{-x[0] + in}
}

func (lag) StateDim() int   { return 1 }
func (lag) ControlDim() int { return 1 }

type countingMetric struct {
	count int
}

func (c *countingMetric) Name() string                                        { return "count" }
func (c *countingMetric) Observe(x dynamo.State, u dynamo.Control, t float64) { c.count++ }
func (c *countingMetric) Value() float64                                      { return float64(c.count) }
func (c *countingMetric) Reset()                                              { c.count = 0 }

var _ = Describe("Simulator", func() {
	var (
		ctx context.Context
		cfg dynamo.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = dynamo.Config{Dt: 0.1, Duration: 1.0, ValidateState: true}
	})

	It("records one state per tick plus the initial state", func() {
		s := sim.New(lag{}, integrators.NewEuler(), control.NewNone(1), nil)

		result, err := s.Run(ctx, dynamo.State{1.0}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.States).To(HaveLen(11))
		Expect(result.Times).To(HaveLen(11))
		Expect(result.Controls).To(HaveLen(10))
		Expect(result.Dts).To(HaveLen(10))
		Expect(result.StepsTaken).To(Equal(10))
		Expect(result.States[10][0]).To(BeNumerically("~", math.Exp(-1), 0.05))
	})

	It("reports metric values after observing every tick", func() {
		s := sim.New(lag{}, integrators.NewEuler(), control.NewNone(1), nil)
		m := &countingMetric{}
		s.AddMetric(m)

		result, err := s.Run(ctx, dynamo.State{1.0}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Metrics).To(HaveKeyWithValue("count", 10.0))
	})

	DescribeTable("rejects invalid configuration",
		func(c dynamo.Config) {
			s := sim.New(lag{}, integrators.NewEuler(), control.NewNone(1), nil)
			_, err := s.Run(ctx, dynamo.State{1.0}, c)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		},
		Entry("zero dt", dynamo.Config{Dt: 0, Duration: 1}),
		Entry("negative dt", dynamo.Config{Dt: -0.1, Duration: 1}),
		Entry("zero duration", dynamo.Config{Dt: 0.1, Duration: 0}),
		Entry("negative jitter", dynamo.Config{Dt: 0.1, Duration: 1, Jitter: -0.1}),
		Entry("jitter of a full tick", dynamo.Config{Dt: 0.1, Duration: 1, Jitter: 1}),
	)

	It("rejects an initial state of the wrong size", func() {
		s := sim.New(lag{}, integrators.NewEuler(), control.NewNone(1), nil)
		_, err := s.Run(ctx, dynamo.State{1, 2}, cfg)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("returns the partial result when the context is canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		s := sim.New(lag{}, integrators.NewEuler(), control.NewNone(1), nil)
		result, err := s.Run(canceled, dynamo.State{1.0}, cfg)
		Expect(err).To(MatchError(context.Canceled))
		Expect(result.States).To(HaveLen(1))
	})

	Context("with a PID loop", func() {
		It("drives the plant to the target", func() {
			loop := control.NewLoop(pid.New(2, 0.5, 0), 1, 0)
			s := sim.New(lag{}, integrators.NewRK4(), loop, nil)

			result, err := s.Run(ctx, dynamo.State{0}, dynamo.Config{Dt: 0.01, Duration: 20, ValidateState: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Errors).To(BeEmpty())

			final := result.States[len(result.States)-1][0]
			Expect(final).To(BeNumerically("~", 1.0, 1e-3))
		})

		It("resets the controller at the start of every run", func() {
			loop := control.NewLoop(pid.New(2, 0.5, 0.01), 1, 0)
			s := sim.New(lag{}, integrators.NewRK4(), loop, nil)

			first, err := s.Run(ctx, dynamo.State{0}, cfg)
			Expect(err).NotTo(HaveOccurred())
			second, err := s.Run(ctx, dynamo.State{0}, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Controls).To(Equal(first.Controls))
		})

		It("stops on a diverged plant and records a step error", func() {
			loop := control.NewLoop(pid.New(1, 0, 0), math.NaN(), 0)
			s := sim.New(lag{}, integrators.NewEuler(), loop, nil)

			result, err := s.Run(ctx, dynamo.State{0}, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.StepsTaken).To(BeZero())
			Expect(result.Errors).To(HaveLen(1))

			var stepErr *dynamo.StepError
			Expect(errors.As(result.Errors[0], &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(BeZero())
			Expect(result.Errors[0]).To(MatchError(dynamo.ErrInvalidState))
		})
	})

	Context("with jitter", func() {
		BeforeEach(func() {
			cfg.Jitter = 0.5
			cfg.Seed = 7
		})

		It("keeps every tick within the jitter band", func() {
			s := sim.New(lag{}, integrators.NewEuler(), control.NewNone(1), nil)
			result, err := s.Run(ctx, dynamo.State{1}, cfg)
			Expect(err).NotTo(HaveOccurred())

			for _, dt := range result.Dts {
				Expect(dt).To(BeNumerically(">=", 0.05))
				Expect(dt).To(BeNumerically("<=", 0.15))
			}
		})

		It("is reproducible for a fixed seed", func() {
			s := sim.New(lag{}, integrators.NewEuler(), control.NewNone(1), nil)
			a, err := s.Run(ctx, dynamo.State{1}, cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := s.Run(ctx, dynamo.State{1}, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(b.Dts).To(Equal(a.Dts))
			Expect(b.Times).To(Equal(a.Times))
		})
	})
})

var _ = Describe("Session", func() {
	It("advances one tick per Step", func() {
		s := sim.New(lag{}, integrators.NewEuler(), control.NewNone(1), nil)
		sess, err := s.Start(dynamo.State{1}, dynamo.Config{Dt: 0.5, Duration: 1})
		Expect(err).NotTo(HaveOccurred())

		tick, err := sess.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(tick.Step).To(Equal(1))
		Expect(tick.Time).To(Equal(0.5))
		Expect(tick.State[0]).To(Equal(0.5))
		Expect(sess.Time()).To(Equal(0.5))
	})
})
