// Package pid implements a discrete-time PID control law in standard form:
//
//	u(t) = Kp (e(t) + (1/Ti) ∫e dt - Td de/dt)
//
// A [Controller] is a plain value owned by the control loop that embeds it.
// The loop decides when to sample and supplies the elapsed time for every
// tick; the controller only does the arithmetic.
//
// # Usage
//
//	var c pid.Controller
//	c.SetGains(2.0, 0.5, 0.05) // Kp, Ti, Td
//	for range ticker.C {
//	    u := c.Calculate(setpoint-read(), dt)
//	    apply(u)
//	}
//
// A Ti of exactly zero disables integral action. The derivative term divides
// by dt with no guard, so a zero dt yields a non-finite output; callers that
// can produce zero-length ticks must check the result.
//
// # Thread Safety
//
// Controller is NOT safe for concurrent use. Use one instance per loop or
// serialize access externally.
package pid
