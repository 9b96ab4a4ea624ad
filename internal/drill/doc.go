// Package drill implements the focus grid drill: a timed attention exercise in
// which an athlete finds the numbers 00-99, in order, on a shuffled grid.
//
// # Components
//
//   - Shuffler generates the grid as a uniform permutation (Fisher-Yates).
//   - Timer is a countdown handle whose ticks are consumed by a single owner.
//   - Machine holds the drill phase, the current target and the remaining
//     time, and reacts to taps and timer expiry.
//   - Render projects a grid and state into a View for the host surface.
//   - Session runs a Machine on one goroutine so that intents and timer ticks
//     are applied strictly one at a time.
//
// # Lifecycle
//
//	Idle --Start--> Running --Tap(last)--> Finished
//	                Running --expire-----> Finished
//	Finished --Restart--> Idle
//
// Entering Finished stops the timer and reports exactly one Result to the
// configured ResultSink. Wrong taps, and any tap outside Running, are ignored.
package drill
