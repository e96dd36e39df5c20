// Package dynamo provides the primitives shared by the closed-loop harness.
//
// A simulated plant is a [System] (dX/dt = f(X, u, t)) advanced by an
// [Integrator]. A [Controller] turns the plant state into a control vector
// once per tick; the loop that drives it owns the clock and hands every
// call the elapsed dt, the same contract a real embedding loop has with
// [github.com/san-kum/pidlab/internal/pid.Controller].
//
// # Example
//
//	plant := plant.NewThermal()
//	loop := control.NewLoop(pid.New(4, 30, 0.5), 60, 0)
//	s := sim.New(plant, integrators.NewRK4(), loop, nil)
//	result, err := s.Run(ctx, dynamo.State{20}, dynamo.DefaultConfig())
package dynamo
