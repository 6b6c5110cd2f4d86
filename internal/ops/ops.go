// Package ops implements the user-facing verbs: status, install, update,
// and remove. Each operation is a thin orchestration over the state model
// and the reconciliation engine: acquire the repository lock, build the
// merged snapshot, plan, apply, report. Lock and manifest failures abort
// before any mutation is attempted.
package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/Pistonite/magoo/internal/engine"
	"github.com/Pistonite/magoo/internal/gitcmd"
	"github.com/Pistonite/magoo/internal/repolock"
	"github.com/Pistonite/magoo/internal/state"
)

// Env carries the per-invocation dependencies and defaults of an operation.
type Env struct {
	Repo *gitcmd.Repo
	// LockTimeout bounds the wait for the repository lock. Zero blocks
	// until the lock is free.
	LockTimeout time.Duration
	// Depth is the default clone depth. Zero clones full history.
	Depth int
	// NoRecurse disables recursing into nested submodules.
	NoRecurse bool
}

// ConflictError reports a name or path collision when adding a submodule.
type ConflictError struct {
	Name     string
	Path     string
	Existing string
}

func (e *ConflictError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("a submodule named %q already exists", e.Name)
	}
	return fmt.Sprintf("path %q conflicts with existing submodule %q", e.Path, e.Existing)
}

// pass runs fn inside a locked reconciliation pass over a fresh snapshot.
func (e *Env) pass(ctx context.Context, wide bool, fn func(snap *state.Snapshot, applier *engine.Applier) (engine.Report, error)) (engine.Report, error) {
	guard, err := repolock.Acquire(ctx, e.Repo.GitDir(), e.LockTimeout)
	if err != nil {
		return engine.Report{}, err
	}
	defer guard.Release()

	snap, err := state.Collect(ctx, e.Repo, wide)
	if err != nil {
		return engine.Report{}, err
	}

	applier := &engine.Applier{
		Repo:      e.Repo,
		Manifest:  snap.Manifest,
		Depth:     e.Depth,
		NoRecurse: e.NoRecurse,
	}
	return fn(snap, applier)
}

// fullReport lists every record in snapshot order, folding in the results of
// applied steps so untouched submodules still show their classification.
func fullReport(records []state.Record, applied engine.Report) engine.Report {
	type key struct{ name, path string }
	byKey := map[key]engine.Result{}
	for _, res := range applied.Results {
		byKey[key{res.Name, res.Path}] = res
	}

	var out engine.Report
	for _, rec := range records {
		if res, ok := byKey[key{rec.Name, rec.Path}]; ok {
			out.Results = append(out.Results, res)
		} else {
			out.Results = append(out.Results, engine.Result{
				Name:   rec.Name,
				Path:   rec.Path,
				Status: rec.Status,
				Head:   rec.Probe.HeadCommit,
				Index:  rec.Probe.IndexCommit,
			})
		}
	}
	return out
}
