package state

import (
	"testing"

	"github.com/Pistonite/magoo/internal/gitmodules"
)

var (
	testSpec   = &gitmodules.Spec{Name: "libfoo", Path: "vendor/libfoo", URL: "https://example.com/libfoo.git"}
	activeCfg  = &Config{Name: "libfoo", Active: true, URL: "https://example.com/libfoo.git"}
	passiveCfg = &Config{Name: "libfoo", Active: false}
)

func TestClassify(t *testing.T) {
	const (
		shaA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		shaB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	)

	tests := []struct {
		name  string
		spec  *gitmodules.Spec
		cfg   *Config
		probe Probe
		want  Status
	}{
		{
			"fresh clone in sync",
			testSpec, activeCfg,
			Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: shaA, IndexCommit: shaA},
			StatusUpToDate,
		},
		{
			"checkout moved off recorded commit",
			testSpec, activeCfg,
			Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: shaB, IndexCommit: shaA},
			StatusBehind,
		},
		{
			"declared but never initialized",
			testSpec, nil,
			Probe{},
			StatusUninitialized,
		},
		{
			"declared with inactive config entry",
			testSpec, passiveCfg,
			Probe{},
			StatusUninitialized,
		},
		{
			"deinitialized with module storage kept",
			testSpec, nil,
			Probe{Initialized: true, IndexCommit: shaA},
			StatusUninitialized,
		},
		{
			"initialized but directory empty",
			testSpec, activeCfg,
			Probe{Initialized: true},
			StatusNotCloned,
		},
		{
			"active in config before first clone",
			testSpec, activeCfg,
			Probe{},
			StatusNotCloned,
		},
		{
			"tracked modifications",
			testSpec, activeCfg,
			Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: shaA, IndexCommit: shaA, Dirty: true},
			StatusDirty,
		},
		{
			"untracked residue",
			testSpec, activeCfg,
			Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: shaA, IndexCommit: shaA, Untracked: true},
			StatusDirty,
		},
		{
			"dirty wins over behind",
			testSpec, activeCfg,
			Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: shaB, IndexCommit: shaA, Dirty: true},
			StatusDirty,
		},
		{
			"config entry with no declaration",
			nil, activeCfg,
			Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: shaA},
			StatusOrphaned,
		},
		{
			"bare gitlink with no declaration",
			nil, nil,
			Probe{IndexCommit: shaA},
			StatusOrphaned,
		},
		{
			"path holds non-submodule content",
			testSpec, activeCfg,
			Probe{Populated: true, IsRepo: false},
			StatusInconsistent,
		},
		{
			"populated without active config",
			testSpec, nil,
			Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: shaA, IndexCommit: shaA},
			StatusInconsistent,
		},
		{
			"module storage with inactive config entry",
			testSpec, passiveCfg,
			Probe{Initialized: true},
			StatusUninitialized,
		},
		{
			"checkout without module storage",
			testSpec, activeCfg,
			Probe{Populated: true, IsRepo: true, HeadCommit: shaA, IndexCommit: shaA},
			StatusInconsistent,
		},
		{
			"populated but no gitlink in index",
			testSpec, activeCfg,
			Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: shaA},
			StatusInconsistent,
		},
		{
			"populated but head unresolvable",
			testSpec, activeCfg,
			Probe{Initialized: true, Populated: true, IsRepo: true, IndexCommit: shaA},
			StatusInconsistent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.spec, tt.cfg, tt.probe)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Classify must not depend on anything but its arguments; calling it twice
// with the same triple gives the same answer.
func TestClassify_Deterministic(t *testing.T) {
	probe := Probe{Initialized: true, Populated: true, IsRepo: true, HeadCommit: "a", IndexCommit: "a"}
	first := Classify(testSpec, activeCfg, probe)
	for i := 0; i < 3; i++ {
		if got := Classify(testSpec, activeCfg, probe); got != first {
			t.Fatalf("call %d: got %v, want %v", i, got, first)
		}
	}
}

func TestStatusString(t *testing.T) {
	for s := StatusUpToDate; s <= StatusInconsistent; s++ {
		if s.String() == "unknown" {
			t.Errorf("status %d has no name", s)
		}
	}
	if Status(99).String() != "unknown" {
		t.Error("out-of-range status should be unknown")
	}
}
