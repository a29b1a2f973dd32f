// Package viz renders a running simulation in the terminal.
//
// The view is a Bubble Tea program drawing particles as braille dots on a
// [Canvas], each cell colored by the type of the last particle plotted in
// it. A side panel plots kinetic energy with asciigraph and shows the
// status line: simulated time t and timesteps per second (tsps).
//
// # Key Bindings
//
//	Space   - Pause/Resume simulation
//	W       - Toggle wrapping
//	Tab     - Show the interaction parameters
//	+/-     - Scale the time step by 1.1
//	Shift+X - Apply the preset bound to X
//	T       - Cycle color themes
//	?       - Show help overlay
//	Q/Esc   - Quit
package viz
