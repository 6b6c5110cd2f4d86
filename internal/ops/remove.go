package ops

import (
	"context"
	"fmt"

	"github.com/Pistonite/magoo/internal/engine"
	"github.com/Pistonite/magoo/internal/state"
)

// RemoveOptions names the submodule to remove. Force discards uncommitted
// changes inside the submodule; without it a dirty submodule is refused
// before anything is touched.
type RemoveOptions struct {
	Name  string
	Force bool
}

// Remove tears a submodule down in the order that keeps interruption safe:
// deinitialize, purge .git/modules, then drop the manifest entry and local
// config. An interrupted removal leaves the submodule orphaned, which a rerun
// removes cleanly; it never leaves a manifest entry pointing at a half-purged
// module.
func Remove(ctx context.Context, env *Env, opts RemoveOptions) (engine.Report, error) {
	return env.pass(ctx, true, func(snap *state.Snapshot, applier *engine.Applier) (engine.Report, error) {
		rec, ok := snap.Get(opts.Name)
		if !ok {
			return engine.Report{}, fmt.Errorf("cannot find submodule %q", opts.Name)
		}

		actions, err := engine.RemovalSteps(*rec, opts.Force)
		if err != nil {
			return engine.Report{}, err
		}

		applied := applier.Apply(ctx, []engine.Step{{Record: *rec, Actions: actions}})
		return applied, nil
	})
}
