// Package gitcmd invokes the git executable as a subprocess and exposes
// typed helpers for the commands magoo needs: rev-parse probes, config
// reads/writes, index listing, and the submodule porcelain.
//
// The gateway never interprets git's output beyond splitting lines and
// recognizing non-zero exits; parsing the output into submodule state is
// the state package's job.
package gitcmd
