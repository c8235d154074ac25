package orchestration

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"
)

type workerRun func(context.Context) error

// panicSafeNamedWorker turns a panic inside run into an error so a crashing
// turn fails like any other instead of taking the process down.
func panicSafeNamedWorker(name string, run func(context.Context) error) workerRun {
	return func(ctx context.Context) (err error) {
		var catcher panics.Catcher
		catcher.Try(func() {
			err = run(ctx)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			return fmt.Errorf("%s worker panicked: %w", name, recovered.AsError())
		}
		return err
	}
}
