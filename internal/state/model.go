// Package state builds the unified per-submodule view of the three truth
// sources git keeps: the .gitmodules manifest, the submodule section of
// .git/config, and the observed index/work-tree state. Classification of a
// merged record is a pure function so policy can be tested without a
// repository.
package state

import (
	"github.com/Pistonite/magoo/internal/gitmodules"
)

// Config is the submodule subsection of .git/config for one submodule.
type Config struct {
	Name string
	// Active reports whether the submodule is initialized in config,
	// either via an explicit submodule.<name>.active flag or a local URL.
	Active bool
	// URL is the locally resolved remote URL, which may override the
	// manifest's URL.
	URL string
	// Branch is a local override of the tracked branch.
	Branch string
}

// Probe is the observed index and work-tree state of one submodule.
type Probe struct {
	// Initialized reports that .git/modules/<name> holds a git directory.
	Initialized bool
	// Populated reports that the work-tree path exists and is non-empty.
	Populated bool
	// IsRepo reports that the populated path is a git checkout (has .git).
	IsRepo bool
	// HeadCommit is the commit checked out in the submodule. Empty when
	// HEAD does not resolve, e.g. a just-added submodule with no commits.
	HeadCommit string
	// IndexCommit is the gitlink SHA the superproject's index records for
	// the path. Empty when the path is not a gitlink.
	IndexCommit string
	// Dirty reports uncommitted changes to tracked files inside the
	// submodule.
	Dirty bool
	// Untracked reports untracked residue files. Only probed when the
	// caller requested the wide probe.
	Untracked bool
}

// Record is the merged view of one submodule across all three sources.
// Any of Spec, Config may be nil when the corresponding source has no entry.
type Record struct {
	// Name is the submodule name, or "" for a gitlink with no declaration.
	Name string
	// Path is the work-tree path, best effort across the sources.
	Path string

	Spec   *gitmodules.Spec
	Config *Config
	Probe  Probe

	Status Status
}

// Status classifies a merged record's consistency.
type Status int

const (
	// StatusUpToDate means initialized, populated, checked out at the
	// index-recorded commit, and clean.
	StatusUpToDate Status = iota
	// StatusBehind means populated and clean but checked out at a commit
	// other than the index-recorded one.
	StatusBehind
	// StatusUninitialized means declared in the manifest but not
	// initialized in config. Module storage left behind by a deinit may
	// still exist; the submodule is installable either way.
	StatusUninitialized
	// StatusNotCloned means active in config but the work tree is empty.
	StatusNotCloned
	// StatusDirty means local modifications or untracked residue exist.
	// Dirty always surfaces as-is and is never fixed without force.
	StatusDirty
	// StatusOrphaned means state exists in config, .git/modules, or the
	// index with no manifest declaration.
	StatusOrphaned
	// StatusInconsistent means the sources contradict each other in a way
	// that must not be auto-resolved.
	StatusInconsistent
)

func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up to date"
	case StatusBehind:
		return "behind"
	case StatusUninitialized:
		return "uninitialized"
	case StatusNotCloned:
		return "not cloned"
	case StatusDirty:
		return "dirty"
	case StatusOrphaned:
		return "orphaned"
	case StatusInconsistent:
		return "inconsistent"
	}
	return "unknown"
}

// Classify derives the status of a (spec, config, probe) triple. It is a
// pure function of its inputs.
func Classify(spec *gitmodules.Spec, cfg *Config, probe Probe) Status {
	if spec == nil {
		return StatusOrphaned
	}

	if probe.Populated && !probe.IsRepo {
		// the manifest path collides with existing non-submodule content
		return StatusInconsistent
	}

	active := cfg != nil && cfg.Active
	if !active {
		if probe.Populated {
			// a checkout left behind without an active config entry
			return StatusInconsistent
		}
		// deinit keeps .git/modules/<name> around; storage alone does not
		// make the submodule any less installable
		return StatusUninitialized
	}

	if !probe.Populated {
		return StatusNotCloned
	}
	if !probe.Initialized {
		// a checkout without a .git/modules entry, e.g. a pre-1.7.8 style
		// embedded .git directory
		return StatusInconsistent
	}
	if probe.Dirty || probe.Untracked {
		return StatusDirty
	}
	if probe.IndexCommit == "" || probe.HeadCommit == "" {
		// populated and active but no gitlink (or an unresolvable HEAD)
		return StatusInconsistent
	}
	if probe.HeadCommit == probe.IndexCommit {
		return StatusUpToDate
	}
	return StatusBehind
}
