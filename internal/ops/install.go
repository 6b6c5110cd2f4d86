package ops

import (
	"context"
	"path"
	"strings"

	"github.com/Pistonite/magoo/internal/engine"
	"github.com/Pistonite/magoo/internal/gitcmd"
	"github.com/Pistonite/magoo/internal/state"
)

// InstallOptions selects between the two install forms. A zero URL means
// "install everything the manifest declares"; a non-zero URL adds a new
// submodule.
type InstallOptions struct {
	URL  string
	Path string
	// Branch is the remote branch to track. Empty tracks the remote HEAD.
	Branch string
	// Name overrides the submodule name. Empty derives it from Path, the
	// way git does.
	Name string
	// Depth limits clone history for this submodule.
	Depth int
	// Force re-adds over an existing name or path and permits reverting
	// dirty checkouts.
	Force bool
}

// Install converges the work tree toward the manifest: it clones
// uninitialized and not-cloned submodules and reverts checkouts that are
// behind the index-recorded commit. With a URL it instead declares and
// clones one new submodule, refusing name and path collisions unless
// forced.
func Install(ctx context.Context, env *Env, opts InstallOptions) (engine.Report, error) {
	if opts.Depth == 0 {
		opts.Depth = env.Depth
	}
	if opts.URL == "" {
		return env.pass(ctx, false, func(snap *state.Snapshot, applier *engine.Applier) (engine.Report, error) {
			steps := engine.Plan(snap.Records, engine.GoalInstall, opts.Force)
			applied := applier.Apply(ctx, steps)
			return fullReport(snap.Records, applied), nil
		})
	}
	return env.pass(ctx, true, func(snap *state.Snapshot, applier *engine.Applier) (engine.Report, error) {
		return installNew(ctx, env, snap, opts)
	})
}

func installNew(ctx context.Context, env *Env, snap *state.Snapshot, opts InstallOptions) (engine.Report, error) {
	if opts.Path == "" {
		opts.Path = defaultPath(opts.URL)
	}
	name := opts.Name
	if name == "" {
		name = path.Clean(opts.Path)
	}

	if !opts.Force {
		if _, exists := snap.Get(name); exists {
			return engine.Report{}, &ConflictError{Name: name}
		}
		if existing, exists := snap.Manifest.ByPath(opts.Path); exists {
			return engine.Report{}, &ConflictError{Path: opts.Path, Existing: existing.Name}
		}
		if existing, nested := snap.Manifest.NestingConflict(opts.Path); nested {
			return engine.Report{}, &ConflictError{Path: opts.Path, Existing: existing}
		}
	}

	// `git submodule add` realizes WriteManifestEntry and Clone in one
	// step: it writes the .gitmodules section, clones, and stages both.
	res := engine.Result{
		Name:   name,
		Path:   opts.Path,
		Status: state.StatusUninitialized,
	}
	err := env.Repo.SubmoduleAdd(ctx, opts.URL, opts.Path, gitcmd.SubmoduleAddOptions{
		Branch: opts.Branch,
		Name:   opts.Name,
		Depth:  opts.Depth,
		Force:  opts.Force,
	})
	if err != nil {
		res.Err = err
	} else {
		res.Actions = []engine.ActionKind{engine.ActionWriteManifestEntry, engine.ActionClone}
		res.Status = state.StatusUpToDate
	}
	return engine.Report{Results: []engine.Result{res}}, nil
}

// defaultPath derives the checkout path from the URL the way git does: the
// last path component with any .git suffix stripped.
func defaultPath(url string) string {
	base := strings.TrimSuffix(url, "/")
	if i := strings.LastIndexAny(base, "/:"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".git")
}
