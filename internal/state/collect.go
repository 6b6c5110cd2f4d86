package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Pistonite/magoo/internal/gitcmd"
	"github.com/Pistonite/magoo/internal/gitmodules"
)

// Snapshot is the full merged state of a repository's submodules at one
// point in time, rebuilt from scratch on every invocation.
type Snapshot struct {
	Manifest *gitmodules.Manifest
	Records  []Record
}

// Get returns the record with the given name.
func (s *Snapshot) Get(name string) (*Record, bool) {
	for i := range s.Records {
		if s.Records[i].Name == name {
			return &s.Records[i], true
		}
	}
	return nil, false
}

// Collect reads the manifest, the submodule section of .git/config, the
// .git/modules tree, and the superproject index, probes each submodule's
// work tree, and merges everything into classified records. The merge is a
// three-way outer join keyed by name, falling back to path for sources that
// carry no name. With all set, the probe widens to .git/modules entries and
// gitlinks that no other source references, and counts untracked files as
// residue.
func Collect(ctx context.Context, repo *gitcmd.Repo, all bool) (*Snapshot, error) {
	manifest, err := gitmodules.Load(filepath.Join(repo.TopLevel(), ".gitmodules"))
	if err != nil {
		return nil, err
	}

	byName := map[string]*Record{}
	var order []string
	record := func(name string) *Record {
		if rec, ok := byName[name]; ok {
			return rec
		}
		rec := &Record{Name: name}
		byName[name] = rec
		order = append(order, name)
		return rec
	}

	for _, spec := range manifest.Specs() {
		spec := spec
		rec := record(spec.Name)
		rec.Spec = &spec
		rec.Path = spec.Path
	}

	configs, err := readSubmoduleConfig(ctx, repo)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(configs) {
		rec := record(name)
		rec.Config = configs[name]
	}

	modules, err := scanGitModules(repo)
	if err != nil {
		return nil, err
	}
	for _, name := range modules {
		if _, known := byName[name]; !known && !all {
			// a module dir with no manifest or config entry only surfaces
			// under the wide probe
			continue
		}
		rec := record(name)
		if rec.Path == "" {
			rec.Path = moduleWorktree(ctx, repo, name)
		}
	}

	links, err := repo.Gitlinks(ctx)
	if err != nil {
		return nil, err
	}
	linkByPath := map[string]string{}
	for _, l := range links {
		linkByPath[l.Path] = l.SHA
	}
	for _, name := range order {
		rec := byName[name]
		if sha, ok := linkByPath[rec.Path]; ok && rec.Path != "" {
			rec.Probe.IndexCommit = sha
			delete(linkByPath, rec.Path)
		}
	}
	if all {
		for _, path := range sortedKeys(linkByPath) {
			rec := record("\x00index:" + path)
			rec.Name = ""
			rec.Path = path
			rec.Probe.IndexCommit = linkByPath[path]
		}
	}

	for _, key := range order {
		rec := byName[key]
		if err := probeRecord(ctx, repo, rec, all); err != nil {
			return nil, err
		}
		rec.Status = Classify(rec.Spec, rec.Config, rec.Probe)
		log.Debug().Str("name", rec.Name).Str("path", rec.Path).Stringer("status", rec.Status).Msg("merged submodule record")
	}

	snapshot := &Snapshot{Manifest: manifest}
	for _, key := range order {
		snapshot.Records = append(snapshot.Records, *byName[key])
	}
	return snapshot, nil
}

// readSubmoduleConfig reads the submodule.* entries of .git/config through
// the gateway. The file is never hand-parsed: local config may participate
// in git's include/conditional mechanisms that only git resolves correctly.
func readSubmoduleConfig(ctx context.Context, repo *gitcmd.Repo) (map[string]*Config, error) {
	configFile := filepath.Join(repo.GitDir(), "config")
	pairs, err := repo.ConfigGetRegexp(ctx, configFile, `^submodule\.`)
	if err != nil {
		return nil, fmt.Errorf("reading submodule config: %w", err)
	}

	configs := map[string]*Config{}
	for _, pair := range pairs {
		rest := strings.TrimPrefix(pair[0], "submodule.")
		// the name is a subsection and may itself contain dots; the key is
		// everything after the last one
		cut := strings.LastIndex(rest, ".")
		if cut <= 0 {
			continue
		}
		name, key := rest[:cut], rest[cut+1:]
		cfg, ok := configs[name]
		if !ok {
			cfg = &Config{Name: name}
			configs[name] = cfg
		}
		switch key {
		case "url":
			cfg.URL = pair[1]
			cfg.Active = true
		case "active":
			if pair[1] == "true" {
				cfg.Active = true
			}
		case "branch":
			cfg.Branch = pair[1]
		}
	}
	return configs, nil
}

// scanGitModules walks .git/modules for git directories. The walk recurses
// because a submodule name may contain slashes, in which case its git dir
// nests under intermediate directories.
func scanGitModules(repo *gitcmd.Repo) ([]string, error) {
	root := repo.ModulesDir()
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}

	var names []string
	var walk func(name, dir string) error
	walk = func(name, dir string) error {
		if name != "" {
			if info, err := os.Stat(filepath.Join(dir, "config")); err == nil && info.Mode().IsRegular() {
				names = append(names, name)
				return nil
			}
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			next := entry.Name()
			if name != "" {
				next = name + "/" + next
			}
			if err := walk(next, filepath.Join(dir, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk("", root); err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// moduleWorktree resolves the work-tree path recorded in a module's own
// config, relative to the repo top level. Best effort; orphaned modules may
// have no worktree at all.
func moduleWorktree(ctx context.Context, repo *gitcmd.Repo, name string) string {
	configFile := filepath.Join(repo.ModuleGitDir(name), "config")
	worktree, ok, err := repo.ConfigGet(ctx, configFile, "core.worktree")
	if err != nil || !ok || worktree == "" {
		return ""
	}
	abs := filepath.Join(repo.ModuleGitDir(name), filepath.FromSlash(worktree))
	rel, err := filepath.Rel(repo.TopLevel(), abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

// probeRecord fills in the work-tree facts for one record.
func probeRecord(ctx context.Context, repo *gitcmd.Repo, rec *Record, all bool) error {
	if rec.Name != "" {
		if info, err := os.Stat(filepath.Join(repo.ModuleGitDir(rec.Name), "config")); err == nil && info.Mode().IsRegular() {
			rec.Probe.Initialized = true
		}
	}
	if rec.Path == "" {
		return nil
	}

	abs := repo.WorkTreePath(rec.Path)
	entries, err := os.ReadDir(abs)
	if err != nil {
		// a missing or unreadable path probes as unpopulated
		return nil
	}
	rec.Probe.Populated = len(entries) > 0
	if !rec.Probe.Populated {
		return nil
	}

	if _, err := os.Stat(filepath.Join(abs, ".git")); err != nil {
		return nil
	}
	rec.Probe.IsRepo = true

	sha, ok, err := repo.Head(ctx, abs)
	if err != nil {
		return err
	}
	if ok {
		rec.Probe.HeadCommit = sha
	}

	lines, err := repo.StatusPorcelain(ctx, abs, all)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "??") {
			rec.Probe.Untracked = true
		} else {
			rec.Probe.Dirty = true
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
