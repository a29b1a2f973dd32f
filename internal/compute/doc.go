// Package compute runs the data-parallel stages of a timestep.
//
// A Backend accepts stage dispatches and runs each one's kernel over a
// range of work items. Dispatch only enqueues work; Barrier blocks until
// everything dispatched so far has finished and reports the first kernel
// failure. Stages separated by a Barrier never overlap.
//
//	b := compute.GetBackend()
//	b.Dispatch(compute.StageForces, numTiles, forces)
//	if err := b.Barrier(); err != nil {
//		return err
//	}
//
// Two backends are built in:
//
//   - serial: runs each dispatch inline on the calling goroutine
//   - cpu: splits each dispatch into chunks run on a bounded goroutine pool
package compute
