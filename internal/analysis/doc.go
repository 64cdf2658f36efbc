// Package analysis inspects finished or repeated runs.
//
//   - [ChannelSpectrum]: amplitude spectrum of one channel, via go-dsp
//   - [PhasePortrait] and [PoincareSection]: 2D projections of a trajectory
//   - [LargestLyapunov]: divergence rate of nearby trajectories
//   - [BifurcationDiagram]: stroboscopic samples across a parameter sweep
//
// A positive largest Lyapunov exponent indicates chaotic motion, which the
// resonant double pendulum shows and the free cart never does:
//
//	lambda, err := analysis.LargestLyapunov(ctx, model, x0, span, analysis.LyapunovOptions{})
package analysis
