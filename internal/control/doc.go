// Package control adapts controllers to the [dynamo.Controller] interface
// used by the simulation loop:
//
//   - [Loop]: single-loop PID around [pid.Controller]
//   - [Manual]: fixed actuator output for step tests
//   - [None]: passthrough controller (zero control, open loop)
//
// # Usage
//
//	loop := control.NewLoop(pid.New(2.0, 5.0, 0.1), 60.0, 0) // gains, target, measured index
//	s := sim.New(plant, integ, loop, logger)
//	// Loop.Compute is called once per tick with the tick's dt
//
// Loop and Manual implement [dynamo.Configurable] for live tuning.
package control
