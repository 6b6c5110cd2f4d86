package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Pistonite/magoo/internal/gitcmd"
	"github.com/Pistonite/magoo/internal/gitmodules"
	"github.com/Pistonite/magoo/internal/state"
)

// Result is the outcome for one submodule: its classification, the actions
// that ran, and the first hard failure if one occurred.
type Result struct {
	Name    string
	Path    string
	Status  state.Status
	Actions []ActionKind
	Err     error
	// Head and Index are the checked-out and index-recorded commits at the
	// time the snapshot was taken, when known.
	Head  string
	Index string
	// Describe is a best-effort human-readable name for Head.
	Describe string
}

// Report aggregates per-submodule results for one reconciliation pass.
type Report struct {
	Results []Result
}

// Failed reports whether any submodule's actions failed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return true
		}
	}
	return false
}

// Applier executes planned actions against a repository.
type Applier struct {
	Repo     *gitcmd.Repo
	Manifest *gitmodules.Manifest
	// Depth limits clone history for Clone actions. Zero means full.
	Depth int
	// NoRecurse disables recursing into nested submodules.
	NoRecurse bool
}

// Apply executes each step's actions in order. A failure stops the rest of
// that submodule's actions but the remaining submodules still run; every
// outcome lands in the report.
func (a *Applier) Apply(ctx context.Context, steps []Step) Report {
	var report Report
	for _, step := range steps {
		res := Result{
			Name:   step.Record.Name,
			Path:   step.Record.Path,
			Status: step.Record.Status,
			Head:   step.Record.Probe.HeadCommit,
			Index:  step.Record.Probe.IndexCommit,
		}
		for _, action := range step.Actions {
			log.Debug().Str("name", res.Name).Stringer("action", action.Kind).Msg("applying action")
			if err := a.applyAction(ctx, step.Record, action); err != nil {
				res.Err = fmt.Errorf("%s: %w", action.Kind, err)
				break
			}
			res.Actions = append(res.Actions, action.Kind)
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func (a *Applier) applyAction(ctx context.Context, rec state.Record, action Action) error {
	switch action.Kind {
	case ActionClone:
		return a.Repo.SubmoduleUpdate(ctx, rec.Path, gitcmd.SubmoduleUpdateOptions{
			Init:      true,
			Depth:     a.Depth,
			NoRecurse: a.NoRecurse,
		})

	case ActionCheckout:
		return a.Repo.SubmoduleUpdate(ctx, rec.Path, gitcmd.SubmoduleUpdateOptions{
			Force:     action.Force,
			NoRecurse: a.NoRecurse,
		})

	case ActionFetchAndCheckout:
		if err := a.Repo.SubmoduleUpdate(ctx, rec.Path, gitcmd.SubmoduleUpdateOptions{
			Init:      true,
			Remote:    true,
			Force:     action.Force,
			Depth:     a.Depth,
			NoRecurse: a.NoRecurse,
		}); err != nil {
			return err
		}
		// record the new tip as the superproject's desired commit
		return a.Repo.Add(ctx, rec.Path)

	case ActionDeinitialize:
		return a.deinitialize(ctx, rec, action.Force)

	case ActionPurgeGitDir:
		if rec.Name == "" {
			return nil
		}
		dir := a.Repo.ModuleGitDir(rec.Name)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
		return nil

	case ActionRemoveFromIndex:
		return a.Repo.RemoveCached(ctx, rec.Path)

	case ActionWriteManifestEntry:
		if err := a.Manifest.Set(action.Spec); err != nil {
			return err
		}
		if err := a.writeManifest(); err != nil {
			return err
		}
		return a.Repo.Add(ctx, ".gitmodules")

	case ActionRemoveManifestEntry:
		a.Manifest.Remove(rec.Name)
		if err := a.writeManifest(); err != nil {
			return err
		}
		if rec.Path != "" {
			if err := a.Repo.RemoveCached(ctx, rec.Path); err != nil {
				return err
			}
		}
		if err := a.Repo.Add(ctx, ".gitmodules"); err != nil {
			return err
		}
		// drop any local overrides along with the declaration
		return a.Repo.ConfigRemoveSection(ctx, a.gitConfigFile(), "submodule."+rec.Name)

	case ActionWriteConfigOverride:
		key := fmt.Sprintf("submodule.%s.%s", rec.Name, action.Key)
		if action.Value == "" {
			return a.Repo.ConfigUnset(ctx, a.gitConfigFile(), key)
		}
		return a.Repo.ConfigSet(ctx, a.gitConfigFile(), key, action.Value)
	}
	return fmt.Errorf("unknown action %d", action.Kind)
}

// deinitialize removes the work tree and config entry while preserving
// .git/modules. For a declared submodule this is `git submodule deinit`; an
// orphaned one has no .gitmodules entry for git to go by, so the same effect
// is produced directly.
func (a *Applier) deinitialize(ctx context.Context, rec state.Record, force bool) error {
	if rec.Spec != nil {
		return a.Repo.SubmoduleDeinit(ctx, rec.Path, force)
	}

	if err := a.Repo.ConfigRemoveSection(ctx, a.gitConfigFile(), "submodule."+rec.Name); err != nil {
		return err
	}
	if rec.Path != "" && rec.Probe.Populated {
		abs := a.Repo.WorkTreePath(rec.Path)
		if err := os.RemoveAll(abs); err != nil {
			return fmt.Errorf("removing %s: %w", abs, err)
		}
		// git deinit leaves an empty directory behind
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return fmt.Errorf("recreating %s: %w", abs, err)
		}
	}
	return nil
}

func (a *Applier) writeManifest() error {
	return a.Manifest.WriteTo(filepath.Join(a.Repo.TopLevel(), ".gitmodules"))
}

func (a *Applier) gitConfigFile() string {
	return filepath.Join(a.Repo.GitDir(), "config")
}
