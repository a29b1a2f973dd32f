// Package analysis characterizes the telemetry series a run records.
//
//   - [PowerSpectrum] and [DominantOscillation]: periodic structure, such
//     as the kinetic energy of a rotating cluster
//   - [Summarize]: mean, spread, linear trend and settling time
package analysis
