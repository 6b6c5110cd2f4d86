package ops

import (
	"context"
	"fmt"

	"github.com/Pistonite/magoo/internal/engine"
	"github.com/Pistonite/magoo/internal/state"
)

// UpdateOptions selects what to update. A zero Name updates every declared
// submodule; Branch and URL rewrite the manifest for one named submodule
// before fetching.
type UpdateOptions struct {
	Name string
	// Branch changes the tracked branch in .gitmodules. "HEAD" resets
	// tracking to the remote HEAD.
	Branch string
	// URL changes the remote URL in .gitmodules and syncs it to config.
	URL string
	// Force permits moving a checkout that has uncommitted changes.
	Force bool
}

// Update fetches each submodule's remote and moves the checkout to the tip
// of the tracked branch, updating the superproject's recorded gitlink.
// Manifest rewrites requested via Branch/URL are applied before the fetch
// and persist even when the fetch fails; the failure is still reported.
func Update(ctx context.Context, env *Env, opts UpdateOptions) (engine.Report, error) {
	return env.pass(ctx, false, func(snap *state.Snapshot, applier *engine.Applier) (engine.Report, error) {
		records := snap.Records
		if opts.Name != "" {
			rec, ok := snap.Get(opts.Name)
			if !ok {
				return engine.Report{}, fmt.Errorf("cannot find submodule %q", opts.Name)
			}
			if rec.Spec == nil {
				return engine.Report{}, fmt.Errorf("submodule %q is not declared in .gitmodules; run `magoo status --fix` or `magoo remove %s`", opts.Name, opts.Name)
			}
			if err := retarget(ctx, env, rec, opts); err != nil {
				return engine.Report{}, err
			}
			records = []state.Record{*rec}
		}

		steps := engine.Plan(records, engine.GoalUpdate, opts.Force)
		applied := applier.Apply(ctx, steps)
		report := fullReport(records, applied)

		// a targeted update that planned nothing because the checkout is
		// dirty is a refusal, not a success
		if opts.Name != "" && len(steps) == 0 {
			for i := range report.Results {
				res := &report.Results[i]
				if res.Status == state.StatusDirty && res.Err == nil {
					res.Err = &engine.DestructiveRefusedError{Name: res.Name}
				}
			}
		}
		return report, nil
	})
}

// retarget rewrites the submodule's tracked branch and URL in .gitmodules.
// Git's own semantics apply: the tracking metadata change is independent of
// whether the subsequent fetch succeeds.
func retarget(ctx context.Context, env *Env, rec *state.Record, opts UpdateOptions) error {
	if opts.Branch != "" {
		branch := opts.Branch
		if branch == "HEAD" {
			branch = ""
		}
		if err := env.Repo.SubmoduleSetBranch(ctx, rec.Path, branch); err != nil {
			return fmt.Errorf("setting branch of %q: %w", rec.Name, err)
		}
		rec.Spec.Branch = branch
	}
	if opts.URL != "" {
		if err := env.Repo.SubmoduleSetURL(ctx, rec.Path, opts.URL); err != nil {
			return fmt.Errorf("setting url of %q: %w", rec.Name, err)
		}
		// propagate the new URL into .git/config and the module config
		if err := env.Repo.SubmoduleSync(ctx, rec.Path); err != nil {
			return fmt.Errorf("syncing url of %q: %w", rec.Name, err)
		}
		rec.Spec.URL = opts.URL
	}
	if opts.Branch != "" || opts.URL != "" {
		if err := env.Repo.Add(ctx, ".gitmodules"); err != nil {
			return err
		}
	}
	return nil
}
