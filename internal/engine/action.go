// Package engine computes and applies the corrective actions that converge
// submodules toward a consistent state. Planning is a pure function over the
// merged records; applying executes one submodule at a time and aggregates
// per-submodule results so partial success is surfaced, not hidden.
package engine

import (
	"fmt"

	"github.com/Pistonite/magoo/internal/gitmodules"
	"github.com/Pistonite/magoo/internal/state"
)

// ActionKind enumerates the corrective actions the engine can take.
type ActionKind int

const (
	// ActionClone initializes, fetches, and checks out a submodule that
	// has no work tree.
	ActionClone ActionKind = iota
	// ActionCheckout moves the work tree to the index-recorded commit
	// without fetching.
	ActionCheckout
	// ActionFetchAndCheckout fetches the remote, resolves the tracked
	// branch to its tip, checks it out, and updates the recorded gitlink.
	ActionFetchAndCheckout
	// ActionDeinitialize removes the populated work tree and the config
	// entry but preserves .git/modules history. Reversible by re-cloning.
	ActionDeinitialize
	// ActionPurgeGitDir removes .git/modules/<name>. Destructive.
	ActionPurgeGitDir
	// ActionRemoveFromIndex drops a stale gitlink from the superproject
	// index.
	ActionRemoveFromIndex
	// ActionWriteManifestEntry adds or updates a .gitmodules section.
	ActionWriteManifestEntry
	// ActionRemoveManifestEntry deletes the .gitmodules section along with
	// the index gitlink and local config section.
	ActionRemoveManifestEntry
	// ActionWriteConfigOverride writes a submodule.<name>.* key in
	// .git/config.
	ActionWriteConfigOverride
)

func (k ActionKind) String() string {
	switch k {
	case ActionClone:
		return "clone"
	case ActionCheckout:
		return "checkout"
	case ActionFetchAndCheckout:
		return "fetch and checkout"
	case ActionDeinitialize:
		return "deinitialize"
	case ActionPurgeGitDir:
		return "purge git dir"
	case ActionRemoveFromIndex:
		return "remove from index"
	case ActionWriteManifestEntry:
		return "write manifest entry"
	case ActionRemoveManifestEntry:
		return "remove manifest entry"
	case ActionWriteConfigOverride:
		return "write config override"
	}
	return "unknown"
}

// Action is one corrective step against one submodule.
type Action struct {
	Kind ActionKind
	// Spec is the manifest entry for ActionWriteManifestEntry.
	Spec gitmodules.Spec
	// Key and Value carry the config key for ActionWriteConfigOverride.
	Key   string
	Value string
	// Force permits discarding local changes where the action supports it.
	Force bool
}

// Step is the planned action sequence for one submodule.
type Step struct {
	Record  state.Record
	Actions []Action
}

// Goal selects which policy column applies when planning.
type Goal int

const (
	// GoalFix is the `status --fix` policy: converge bookkeeping without
	// ever moving a checkout.
	GoalFix Goal = iota
	// GoalInstall populates missing submodules and reverts checkouts to
	// the index-recorded commit.
	GoalInstall
	// GoalUpdate fetches remotes and moves checkouts to the tracked
	// branch's tip.
	GoalUpdate
)

// DestructiveRefusedError reports that an operation would discard
// uncommitted work and was not forced.
type DestructiveRefusedError struct {
	Name string
}

func (e *DestructiveRefusedError) Error() string {
	return fmt.Sprintf("refusing to discard local changes in submodule %q; re-run with --force to override", e.Name)
}

// Plan computes the corrective steps for the merged records under the given
// goal. It is a pure function: no side effects, no subprocesses. Records
// carrying uncommitted work never receive a destructive action unless force
// is set, regardless of any other classification.
func Plan(records []state.Record, goal Goal, force bool) []Step {
	var steps []Step
	for _, rec := range records {
		actions := planRecord(rec, goal, force)
		if len(actions) > 0 {
			steps = append(steps, Step{Record: rec, Actions: actions})
		}
	}
	return steps
}

func planRecord(rec state.Record, goal Goal, force bool) []Action {
	dirty := rec.Probe.Dirty || rec.Probe.Untracked

	switch rec.Status {
	case state.StatusUpToDate:
		if goal == GoalUpdate {
			return []Action{{Kind: ActionFetchAndCheckout}}
		}
	case state.StatusBehind:
		// fixing status never silently moves a checkout
		switch goal {
		case GoalInstall:
			return []Action{{Kind: ActionCheckout}}
		case GoalUpdate:
			return []Action{{Kind: ActionFetchAndCheckout}}
		}
	case state.StatusUninitialized:
		// initializing is a user-requested install, not a silent fix
		switch goal {
		case GoalInstall:
			return []Action{{Kind: ActionClone}}
		case GoalUpdate:
			return []Action{{Kind: ActionFetchAndCheckout}}
		}
	case state.StatusNotCloned:
		// config says active, tree says empty; safe to populate
		switch goal {
		case GoalFix, GoalInstall:
			return []Action{{Kind: ActionClone}}
		case GoalUpdate:
			return []Action{{Kind: ActionFetchAndCheckout}}
		}
	case state.StatusDirty:
		if !force {
			return nil
		}
		switch goal {
		case GoalInstall:
			return []Action{{Kind: ActionCheckout, Force: true}}
		case GoalUpdate:
			return []Action{{Kind: ActionFetchAndCheckout, Force: true}}
		}
	case state.StatusOrphaned:
		if goal != GoalFix {
			return nil
		}
		// dirty overrides every other classification: a submodule git has
		// lost from the manifest may still hold local edits
		if dirty && !force {
			return nil
		}
		if rec.Config != nil || rec.Probe.Populated {
			return []Action{{Kind: ActionDeinitialize, Force: force}}
		}
		if rec.Probe.Initialized {
			return []Action{{Kind: ActionPurgeGitDir}}
		}
		if rec.Probe.IndexCommit != "" {
			// a gitlink with nothing else behind it
			return []Action{{Kind: ActionRemoveFromIndex}}
		}
	case state.StatusInconsistent:
		// contradictory state is reported, never auto-resolved
	}
	return nil
}

// RemovalSteps is the ordered teardown for `remove`: deinit first, then the
// git dir, then the manifest entry. Interrupting the sequence leaves the
// submodule orphaned, which a re-run removes cleanly, never a manifest entry
// pointing at a half-purged module.
func RemovalSteps(rec state.Record, force bool) ([]Action, error) {
	if (rec.Probe.Dirty || rec.Probe.Untracked) && !force {
		return nil, &DestructiveRefusedError{Name: rec.Name}
	}
	var actions []Action
	if rec.Config != nil || rec.Probe.Populated {
		actions = append(actions, Action{Kind: ActionDeinitialize, Force: force})
	}
	if rec.Probe.Initialized {
		actions = append(actions, Action{Kind: ActionPurgeGitDir})
	}
	actions = append(actions, Action{Kind: ActionRemoveManifestEntry})
	return actions, nil
}
