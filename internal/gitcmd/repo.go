package gitcmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Repo is a handle on the superproject: a Runner plus the resolved .git
// directory and top-level directory, both cached from rev-parse.
type Repo struct {
	runner   Runner
	gitDir   string
	topLevel string
}

// Open resolves the repository containing dir. It fails when dir is not
// inside a git work tree.
func Open(ctx context.Context, runner Runner, dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving directory %s: %w", dir, err)
	}

	res, err := runner.Run(ctx, abs, "rev-parse", "--git-dir")
	if err != nil {
		return nil, err
	}
	if err := res.Err("rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%s is not a git repository: %w", dir, err)
	}
	gitDir := res.FirstLine()
	if gitDir == "" {
		return nil, fmt.Errorf("git did not return the .git directory")
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(abs, gitDir)
	}

	res, err = runner.Run(ctx, abs, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	if err := res.Err("rev-parse", "--show-toplevel"); err != nil {
		return nil, fmt.Errorf("resolving repository top level: %w", err)
	}
	topLevel := res.FirstLine()
	if topLevel == "" {
		return nil, fmt.Errorf("git did not return the top level directory")
	}

	return &Repo{runner: runner, gitDir: filepath.Clean(gitDir), topLevel: filepath.Clean(topLevel)}, nil
}

// GitDir returns the absolute path of the superproject's .git directory.
func (r *Repo) GitDir() string { return r.gitDir }

// TopLevel returns the absolute path of the repository's top-level directory.
func (r *Repo) TopLevel() string { return r.topLevel }

// ModulesDir returns the absolute path of .git/modules.
func (r *Repo) ModulesDir() string { return filepath.Join(r.gitDir, "modules") }

// ModuleGitDir returns the absolute path of .git/modules/<name>.
func (r *Repo) ModuleGitDir(name string) string {
	return filepath.Join(r.ModulesDir(), filepath.FromSlash(name))
}

// WorkTreePath resolves a repo-root-anchored submodule path to an absolute one.
func (r *Repo) WorkTreePath(path string) string {
	return filepath.Join(r.topLevel, filepath.FromSlash(path))
}

// git runs a command in the top-level directory, failing on non-zero exit.
func (r *Repo) git(ctx context.Context, args ...string) (Result, error) {
	res, err := r.runner.Run(ctx, r.topLevel, args...)
	if err != nil {
		return res, err
	}
	return res, res.Err(args...)
}

// gitIn runs a command in dir, failing on non-zero exit.
func (r *Repo) gitIn(ctx context.Context, dir string, args ...string) (Result, error) {
	res, err := r.runner.Run(ctx, dir, args...)
	if err != nil {
		return res, err
	}
	return res, res.Err(args...)
}

// Head returns the commit HEAD resolves to in dir. ok is false when HEAD
// does not resolve, which is expected for a repository with no commits.
func (r *Repo) Head(ctx context.Context, dir string) (sha string, ok bool, err error) {
	res, err := r.runner.Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", false, err
	}
	if res.ExitCode != 0 {
		return "", false, nil
	}
	return res.FirstLine(), true, nil
}

// Describe runs `git describe --all <commit>` in dir, best effort.
func (r *Repo) Describe(ctx context.Context, dir, commit string) string {
	res, err := r.runner.Run(ctx, dir, "describe", "--all", commit)
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	return res.FirstLine()
}

// Gitlink is a submodule entry in the superproject's index.
type Gitlink struct {
	Path string
	SHA  string
}

// Gitlinks lists the gitlink (mode 160000) entries in the index.
func (r *Repo) Gitlinks(ctx context.Context) ([]Gitlink, error) {
	res, err := r.git(ctx, "ls-files", "-s")
	if err != nil {
		return nil, fmt.Errorf("listing index: %w", err)
	}

	var links []Gitlink
	for _, line := range res.Lines() {
		// ls-files -s prints "<mode> <sha> <stage>\t<path>"
		rest, found := strings.CutPrefix(line, "160000 ")
		if !found {
			continue
		}
		sha, pathPart, found := strings.Cut(rest, " ")
		if !found {
			return nil, fmt.Errorf("cannot process index: missing path in %q", line)
		}
		_, path, found := strings.Cut(pathPart, "\t")
		if !found {
			return nil, fmt.Errorf("cannot process index: missing path in %q", line)
		}
		links = append(links, Gitlink{Path: path, SHA: sha})
	}
	return links, nil
}

// StatusPorcelain returns the porcelain status lines for dir. With untracked
// set, untracked files are listed individually; otherwise they are omitted.
func (r *Repo) StatusPorcelain(ctx context.Context, dir string, untracked bool) ([]string, error) {
	mode := "--untracked-files=no"
	if untracked {
		mode = "--untracked-files=all"
	}
	res, err := r.gitIn(ctx, dir, "status", "--porcelain", mode)
	if err != nil {
		return nil, fmt.Errorf("checking work tree status: %w", err)
	}
	return res.Lines(), nil
}

// ConfigGet reads a single key from a git config file. ok is false when the
// key is not present.
func (r *Repo) ConfigGet(ctx context.Context, file, key string) (value string, ok bool, err error) {
	res, err := r.runner.Run(ctx, r.topLevel, "config", "-f", file, "--get", key)
	if err != nil {
		return "", false, err
	}
	if res.ExitCode != 0 {
		// exit 1 means the key is absent; anything else is a real failure
		if res.ExitCode == 1 {
			return "", false, nil
		}
		return "", false, res.Err("config", "--get", key)
	}
	return res.FirstLine(), true, nil
}

// ConfigGetRegexp returns key/value pairs matching pattern from a git config
// file. No matches is not an error. The config file is read through git
// rather than parsed by hand so include/conditional mechanisms resolve the
// way git resolves them.
func (r *Repo) ConfigGetRegexp(ctx context.Context, file, pattern string) ([][2]string, error) {
	res, err := r.runner.Run(ctx, r.topLevel, "config", "-f", file, "--null", "--get-regexp", pattern)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		if res.ExitCode == 1 {
			return nil, nil
		}
		return nil, res.Err("config", "--get-regexp", pattern)
	}

	// --null terminates entries with NUL and separates key from value with \n,
	// which keeps values containing spaces or newlines unambiguous.
	var pairs [][2]string
	for _, entry := range strings.Split(strings.TrimSuffix(res.Stdout, "\x00"), "\x00") {
		if entry == "" {
			continue
		}
		key, value, _ := strings.Cut(entry, "\n")
		pairs = append(pairs, [2]string{key, value})
	}
	return pairs, nil
}

// ConfigSet writes a key in a git config file.
func (r *Repo) ConfigSet(ctx context.Context, file, key, value string) error {
	_, err := r.git(ctx, "config", "-f", file, key, value)
	return err
}

// ConfigUnset removes a key from a git config file, tolerating its absence.
func (r *Repo) ConfigUnset(ctx context.Context, file, key string) error {
	res, err := r.runner.Run(ctx, r.topLevel, "config", "-f", file, "--unset", key)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 && res.ExitCode != 5 {
		// exit 5 means the key did not exist
		return res.Err("config", "--unset", key)
	}
	return nil
}

// ConfigRemoveSection removes a whole section from a git config file,
// tolerating a section that is already gone.
func (r *Repo) ConfigRemoveSection(ctx context.Context, file, section string) error {
	res, err := r.runner.Run(ctx, r.topLevel, "config", "-f", file, "--remove-section", section)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		if strings.Contains(res.Stderr, "no such section") {
			return nil
		}
		return res.Err("config", "--remove-section", section)
	}
	return nil
}

// Add stages a path in the superproject.
func (r *Repo) Add(ctx context.Context, path string) error {
	_, err := r.git(ctx, "add", "--", path)
	return err
}

// RemoveCached removes a path from the superproject's index without touching
// the work tree, tolerating a path that is not in the index.
func (r *Repo) RemoveCached(ctx context.Context, path string) error {
	res, err := r.runner.Run(ctx, r.topLevel, "rm", "--cached", "--ignore-unmatch", "-r", "--", path)
	if err != nil {
		return err
	}
	return res.Err("rm", "--cached", path)
}

// SubmoduleDeinit runs `git submodule deinit` for path. With force set, a
// work tree with local modifications is discarded.
func (r *Repo) SubmoduleDeinit(ctx context.Context, path string, force bool) error {
	args := []string{"submodule", "deinit"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, "--", path)
	_, err := r.git(ctx, args...)
	return err
}

// SubmoduleUpdateOptions selects the behavior of `git submodule update`.
type SubmoduleUpdateOptions struct {
	// Init also initializes submodules that are not yet in .git/config.
	Init bool
	// Remote fetches and checks out the tracked branch's tip instead of the
	// commit recorded in the superproject.
	Remote bool
	// Force discards local changes in the submodule work tree.
	Force bool
	// Depth limits history when cloning. Zero means full history.
	Depth int
	// NoRecurse disables recursing into nested submodules.
	NoRecurse bool
}

// SubmoduleUpdate runs `git submodule update` for path, or all submodules
// when path is empty.
func (r *Repo) SubmoduleUpdate(ctx context.Context, path string, opts SubmoduleUpdateOptions) error {
	args := []string{"submodule", "update", "--checkout"}
	if opts.Init {
		args = append(args, "--init")
	}
	if opts.Remote {
		args = append(args, "--remote")
	}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(opts.Depth))
	}
	if !opts.NoRecurse {
		args = append(args, "--recursive")
	}
	if path != "" {
		args = append(args, "--", path)
	}
	_, err := r.git(ctx, args...)
	return err
}

// SubmoduleAddOptions carries the optional arguments of `git submodule add`.
type SubmoduleAddOptions struct {
	Branch string
	Name   string
	Depth  int
	Force  bool
}

// SubmoduleAdd runs `git submodule add`, which writes the .gitmodules entry
// and clones the submodule in one step.
func (r *Repo) SubmoduleAdd(ctx context.Context, url, path string, opts SubmoduleAddOptions) error {
	args := []string{"submodule", "add"}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch)
	}
	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}
	if opts.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(opts.Depth))
	}
	args = append(args, "--", url, path)
	_, err := r.git(ctx, args...)
	return err
}

// SubmoduleSync runs `git submodule sync` for path, propagating URL changes
// from .gitmodules into .git/config.
func (r *Repo) SubmoduleSync(ctx context.Context, path string) error {
	args := []string{"submodule", "sync"}
	if path != "" {
		args = append(args, "--", path)
	}
	_, err := r.git(ctx, args...)
	return err
}

// SubmoduleSetBranch rewrites the tracked branch of a submodule in
// .gitmodules. An empty branch resets tracking to the remote HEAD.
func (r *Repo) SubmoduleSetBranch(ctx context.Context, path, branch string) error {
	args := []string{"submodule", "set-branch"}
	if branch != "" {
		args = append(args, "--branch", branch)
	} else {
		args = append(args, "--default")
	}
	args = append(args, "--", path)
	_, err := r.git(ctx, args...)
	return err
}

// SubmoduleSetURL rewrites the URL of a submodule in .gitmodules and syncs
// it into .git/config.
func (r *Repo) SubmoduleSetURL(ctx context.Context, path, url string) error {
	_, err := r.git(ctx, "submodule", "set-url", "--", path, url)
	return err
}
