// Package simulation is the run harness layered over the propagation engine.
//
// A run owns its own population, contact network, and random stream. Run
// steps it for a fixed number of timesteps, optionally dropping the
// misinformation rate at an intervention step, and returns a Trajectory of
// per-step snapshots. Sweep runs one fully independent simulation per trust
// level, optionally across parallel workers, and reports the final
// group-averaged belief of each.
//
// Runs are reproducible: the same Options and seed always yield the same
// trajectory, and a sweep point depends only on the seed and its trust level,
// never on its position in the sweep or on the number of workers.
//
// Usage:
//
//	opts := simulation.DefaultOptions()
//	opts.Seed = simulation.SeedOf(42)
//	traj, err := simulation.Run(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	for _, snap := range traj.Snapshots {
//	    fmt.Println(snap.Step, snap.Phase, snap.GroupMeans)
//	}
package simulation
