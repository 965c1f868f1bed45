// Package operations runs a fixed list of collector steps one after another.
//
// A Manager executes the steps held by a Registry in registration order. Each
// step runs once, bounded by its own timeout from Config. A failed step is
// recorded and, unless ContinueOnError is off, the next step still runs.
// Cancelling the parent context stops the run and marks the remaining steps
// skipped.
//
// Steps are usually built from collector definitions:
//
//	registry := operations.NewRegistry()
//	for _, spec := range collectors {
//		step, err := operations.NewCollectorStage(spec, interpreter, logger)
//		if err != nil {
//			return err
//		}
//		registry.Register(step)
//	}
//	manager := operations.NewManager(registry, operations.NewConfig(), metrics)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{WorkDir: dir})
//
// Observers added with AddObserver see every finished step before the next
// one starts, which is how the integrator collects outputs as they appear.
package operations
