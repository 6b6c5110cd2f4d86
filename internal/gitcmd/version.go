package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SupportedGitVersions is the semver range of officially supported git
// versions. The range is not enforced at run time since unsupported versions
// may work fine; status --git reports it as information.
const SupportedGitVersions = ">=2.35.0"

// ErrVersionParse reports that `git --version` printed something the version
// probe does not recognize. Callers treat it as a warning, not a failure.
var ErrVersionParse = errors.New("unrecognized git version output")

// Version runs `git --version` and parses the result.
func Version(ctx context.Context, runner Runner) (*semver.Version, error) {
	res, err := runner.Run(ctx, "", "--version")
	if err != nil {
		return nil, err
	}
	if err := res.Err("--version"); err != nil {
		return nil, err
	}
	return ParseVersion(res.FirstLine())
}

// ParseVersion extracts the semantic version from `git --version` output,
// e.g. "git version 2.43.0" or "git version 2.43.0.windows.1".
func ParseVersion(s string) (*semver.Version, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "git version "))
	// Windows builds append ".windows.N" to the upstream version.
	raw, _, _ = strings.Cut(raw, ".windows.")
	v, err := semver.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrVersionParse, s)
	}
	return v, nil
}

// Supported reports whether v falls in the officially supported range.
func Supported(v *semver.Version) bool {
	c, err := semver.NewConstraint(SupportedGitVersions)
	if err != nil {
		return false
	}
	return c.Check(v)
}
