// Package plant provides simulated processes for closing a control loop.
//
// Each plant implements [dynamo.System] and [dynamo.Configurable]; state
// index 0 is the measured variable a loop regulates:
//
//   - [Thermal]: first-order heater, state [T]
//   - [Motor]: DC motor speed, state [ω]
//   - [SpringMass]: force-driven mass on a spring, state [x, v]
package plant
