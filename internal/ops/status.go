package ops

import (
	"context"

	"github.com/Pistonite/magoo/internal/engine"
	"github.com/Pistonite/magoo/internal/state"
)

// StatusOptions selects the behavior of the status operation.
type StatusOptions struct {
	// All widens the probe to traces that a narrower probe misses:
	// .git/modules entries and gitlinks with no other source, plus
	// untracked residue files.
	All bool
	// Fix applies the default reconciliation policy to every record.
	Fix bool
	// Force permits fix actions that discard uncommitted work.
	Force bool
}

// Status merges and classifies all submodules. With Fix set it also applies
// the engine's default policy, which never moves a checkout and never
// discards dirty work without Force.
func Status(ctx context.Context, env *Env, opts StatusOptions) (engine.Report, error) {
	return env.pass(ctx, opts.All, func(snap *state.Snapshot, applier *engine.Applier) (engine.Report, error) {
		var applied engine.Report
		if opts.Fix {
			steps := engine.Plan(snap.Records, engine.GoalFix, opts.Force)
			applied = applier.Apply(ctx, steps)
		}
		report := fullReport(snap.Records, applied)
		decorate(ctx, env, &report)
		return report, nil
	})
}

// decorate resolves a human-readable name for each checked-out commit via
// `git describe`, best effort.
func decorate(ctx context.Context, env *Env, report *engine.Report) {
	for i := range report.Results {
		res := &report.Results[i]
		if res.Head == "" || res.Path == "" {
			continue
		}
		res.Describe = env.Repo.Describe(ctx, env.Repo.WorkTreePath(res.Path), res.Head)
	}
}
