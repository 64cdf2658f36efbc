// Package viz replays finished trajectories in the terminal.
//
// The replay draws the cart and its links on a braille [Canvas] with the
// camera easing after the cart, and shows the state, energy history and
// playback position in a side panel.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	[ ]   - Step back/forward one percent of the run
//	+ -   - Double/halve playback rate
//	R     - Restart
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// # Recording
//
// G starts capturing every rendered frame; pressing it again writes the
// capture as a looping GIF in the theme's colors.
package viz
