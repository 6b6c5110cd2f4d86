package gitcmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func testRepo(t *testing.T, script *ScriptRunner) *Repo {
	t.Helper()
	top := t.TempDir()
	gitDir := filepath.Join(top, ".git")
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if script.Responses == nil {
		script.Responses = map[string]Result{}
	}
	script.Responses["rev-parse --git-dir"] = Result{Stdout: gitDir + "\n"}
	script.Responses["rev-parse --show-toplevel"] = Result{Stdout: top + "\n"}

	repo, err := Open(context.Background(), script, top)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return repo
}

func TestOpen_NotARepository(t *testing.T) {
	script := NewScriptRunner(map[string]Result{
		"rev-parse --git-dir": {ExitCode: 128, Stderr: "fatal: not a git repository\n"},
	})
	if _, err := Open(context.Background(), script, t.TempDir()); err == nil {
		t.Fatal("expected error outside a repository")
	}
}

func TestGitlinks(t *testing.T) {
	script := &ScriptRunner{Responses: map[string]Result{
		"ls-files -s": {Stdout: "100644 1111111111111111111111111111111111111111 0\t.gitmodules\n" +
			"160000 aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa 0\tvendor/libfoo\n" +
			"160000 bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb 0\tdir with space/sub\n" +
			"100755 2222222222222222222222222222222222222222 0\tscripts/run.sh\n"},
	}}
	repo := testRepo(t, script)

	links, err := repo.Gitlinks(context.Background())
	if err != nil {
		t.Fatalf("Gitlinks failed: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 gitlinks, got %d", len(links))
	}
	if links[0].Path != "vendor/libfoo" || links[0].SHA != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("link 0: %+v", links[0])
	}
	if links[1].Path != "dir with space/sub" {
		t.Errorf("link 1: %+v", links[1])
	}
}

func TestHead(t *testing.T) {
	script := &ScriptRunner{Responses: map[string]Result{
		"rev-parse HEAD": {Stdout: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n"},
	}}
	repo := testRepo(t, script)

	sha, ok, err := repo.Head(context.Background(), repo.TopLevel())
	if err != nil || !ok {
		t.Fatalf("Head: ok=%v err=%v", ok, err)
	}
	if sha != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("got %q", sha)
	}
}

func TestHead_Unborn(t *testing.T) {
	script := &ScriptRunner{Responses: map[string]Result{
		"rev-parse HEAD": {ExitCode: 128, Stderr: "fatal: ambiguous argument 'HEAD'\n"},
	}}
	repo := testRepo(t, script)

	_, ok, err := repo.Head(context.Background(), repo.TopLevel())
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if ok {
		t.Error("unresolvable HEAD reported ok")
	}
}

func TestConfigGet(t *testing.T) {
	script := &ScriptRunner{Responses: map[string]Result{
		"config -f cfg --get submodule.a.url":    {Stdout: "https://example.com/a.git\n"},
		"config -f cfg --get submodule.b.url":    {ExitCode: 1},
		"config -f cfg --get submodule.broken.x": {ExitCode: 3, Stderr: "error: bad config\n"},
	}}
	repo := testRepo(t, script)
	ctx := context.Background()

	v, ok, err := repo.ConfigGet(ctx, "cfg", "submodule.a.url")
	if err != nil || !ok || v != "https://example.com/a.git" {
		t.Errorf("present key: v=%q ok=%v err=%v", v, ok, err)
	}

	_, ok, err = repo.ConfigGet(ctx, "cfg", "submodule.b.url")
	if err != nil || ok {
		t.Errorf("absent key: ok=%v err=%v", ok, err)
	}

	if _, _, err = repo.ConfigGet(ctx, "cfg", "submodule.broken.x"); err == nil {
		t.Error("exit 3 should be a failure")
	}
}

func TestConfigGetRegexp(t *testing.T) {
	script := &ScriptRunner{Responses: map[string]Result{
		"config -f cfg --null --get-regexp ^submodule\\.": {
			Stdout: "submodule.a.url\nhttps://example.com/a.git\x00" +
				"submodule.a.active\ntrue\x00" +
				"submodule.odd.url\nvalue with\nembedded newline\x00",
		},
		"config -f cfg --null --get-regexp ^none\\.": {ExitCode: 1},
	}}
	repo := testRepo(t, script)
	ctx := context.Background()

	pairs, err := repo.ConfigGetRegexp(ctx, "cfg", `^submodule\.`)
	if err != nil {
		t.Fatalf("ConfigGetRegexp failed: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	if pairs[0][0] != "submodule.a.url" || pairs[0][1] != "https://example.com/a.git" {
		t.Errorf("pair 0: %v", pairs[0])
	}
	if pairs[2][1] != "value with\nembedded newline" {
		t.Errorf("pair 2 value: %q", pairs[2][1])
	}

	pairs, err = repo.ConfigGetRegexp(ctx, "cfg", `^none\.`)
	if err != nil || pairs != nil {
		t.Errorf("no matches: pairs=%v err=%v", pairs, err)
	}
}

func TestConfigUnset_ToleratesMissingKey(t *testing.T) {
	script := &ScriptRunner{Responses: map[string]Result{
		"config -f cfg --unset submodule.a.branch": {ExitCode: 5},
	}}
	repo := testRepo(t, script)

	if err := repo.ConfigUnset(context.Background(), "cfg", "submodule.a.branch"); err != nil {
		t.Errorf("unset of missing key failed: %v", err)
	}
}

func TestConfigRemoveSection_ToleratesMissingSection(t *testing.T) {
	script := &ScriptRunner{Responses: map[string]Result{
		"config -f cfg --remove-section submodule.gone": {ExitCode: 128, Stderr: "fatal: no such section: submodule.gone\n"},
	}}
	repo := testRepo(t, script)

	if err := repo.ConfigRemoveSection(context.Background(), "cfg", "submodule.gone"); err != nil {
		t.Errorf("remove of missing section failed: %v", err)
	}
}

func TestSubmoduleUpdate_ArgAssembly(t *testing.T) {
	script := &ScriptRunner{}
	repo := testRepo(t, script)

	err := repo.SubmoduleUpdate(context.Background(), "vendor/libfoo", SubmoduleUpdateOptions{
		Init:   true,
		Remote: true,
		Force:  true,
		Depth:  1,
	})
	if err != nil {
		t.Fatalf("SubmoduleUpdate failed: %v", err)
	}
	want := "submodule update --checkout --init --remote --force --depth 1 --recursive -- vendor/libfoo"
	if !script.Ran(want) {
		t.Errorf("expected %q among calls %v", want, script.Calls)
	}
}

func TestSubmoduleSetBranch_DefaultResetsTracking(t *testing.T) {
	script := &ScriptRunner{}
	repo := testRepo(t, script)
	ctx := context.Background()

	if err := repo.SubmoduleSetBranch(ctx, "p", "main"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SubmoduleSetBranch(ctx, "p", ""); err != nil {
		t.Fatal(err)
	}

	if !script.Ran("submodule set-branch --branch main -- p") {
		t.Errorf("branch form missing from %v", script.Calls)
	}
	if !script.Ran("submodule set-branch --default -- p") {
		t.Errorf("default form missing from %v", script.Calls)
	}
}

func TestModuleGitDir(t *testing.T) {
	repo := testRepo(t, &ScriptRunner{})
	got := repo.ModuleGitDir("tools/bar")
	want := filepath.Join(repo.GitDir(), "modules", "tools", "bar")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
