package gitcmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptRunner is a Runner that answers git invocations from a canned script
// instead of spawning processes. It exists for tests: the state model and
// the reconciliation engine are exercised against scripted git output.
type ScriptRunner struct {
	mu sync.Mutex
	// Responses maps a command line (arguments joined by spaces) to its
	// result. Commands with no entry succeed with empty output.
	Responses map[string]Result
	// Errors maps a command line to a spawn failure.
	Errors map[string]error
	// Calls records every command line run, in order.
	Calls []string
}

// NewScriptRunner returns a ScriptRunner with the given canned responses.
func NewScriptRunner(responses map[string]Result) *ScriptRunner {
	return &ScriptRunner{Responses: responses}
}

// Run looks the command up in the script.
func (s *ScriptRunner) Run(_ context.Context, dir string, args ...string) (Result, error) {
	key := strings.Join(args, " ")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, key)
	if err, ok := s.Errors[key]; ok {
		return Result{}, fmt.Errorf("running `git %s`: %w", key, err)
	}
	if res, ok := s.Responses[key]; ok {
		return res, nil
	}
	_ = dir
	return Result{}, nil
}

// Ran reports whether a command line was run.
func (s *ScriptRunner) Ran(commandLine string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Calls {
		if c == commandLine {
			return true
		}
	}
	return false
}
