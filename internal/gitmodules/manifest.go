// Package gitmodules parses and rewrites the .gitmodules manifest.
//
// The manifest is an INI-like file of `[submodule "<name>"]` sections.
// Parsing preserves the raw lines so that rewrites are targeted patches:
// adding, updating, or removing one submodule leaves every other line
// byte-identical. The submodule subset of .git/config is deliberately not
// handled here; that file may participate in git's include/conditional
// machinery and is read and written through `git config` instead.
package gitmodules

import (
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
)

// Spec is one submodule declaration from .gitmodules.
type Spec struct {
	// Name is the section name and the unique key of the submodule.
	Name string
	// Path is the submodule's work tree path, relative to the repo root.
	Path string
	// URL is the remote the submodule is cloned from.
	URL string
	// Branch is the remote branch tracked by update. Empty means the
	// remote HEAD.
	Branch string
}

// ParseError reports a malformed .gitmodules file. The merge cannot proceed
// without a trustworthy manifest, so callers treat it as fatal for the run.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf(".gitmodules:%d: %s", e.Line, e.Msg)
}

// section tracks a submodule section's span in the raw lines. keyLines maps
// recognized keys to the line index holding them.
type section struct {
	spec     Spec
	start    int // header line index
	end      int // index one past the last line of the section
	keyLines map[string]int
}

// Manifest is a parsed .gitmodules file that remembers its raw form.
type Manifest struct {
	lines           []string
	trailingNewline bool
	sections        []*section
}

var headerRe = regexp.MustCompile(`^submodule\s+"([^"\\]*)"$`)

// Parse reads .gitmodules content. Duplicate submodule names and duplicate
// paths are hard errors: they break the uniqueness invariant the
// reconciliation merge is keyed on.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{trailingNewline: true}
	if len(data) > 0 {
		m.trailingNewline = data[len(data)-1] == '\n'
		m.lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}
	if err := m.reparse(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads and parses the manifest at path. A missing file is an empty
// manifest, not an error.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Manifest{trailingNewline: true}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// reparse rebuilds the section index from the raw lines.
func (m *Manifest) reparse() error {
	m.sections = nil
	names := map[string]int{}
	paths := map[string]int{}
	var cur *section

	closeCurrent := func(end int) {
		if cur != nil {
			cur.end = end
			m.sections = append(m.sections, cur)
			cur = nil
		}
	}

	for i, raw := range m.lines {
		line := strings.TrimSpace(raw)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' {
			if !strings.HasSuffix(line, "]") {
				return &ParseError{Line: i + 1, Msg: "unterminated section header"}
			}
			closeCurrent(i)
			inner := strings.TrimSpace(line[1 : len(line)-1])
			if !strings.HasPrefix(inner, "submodule") {
				continue
			}
			match := headerRe.FindStringSubmatch(inner)
			if match == nil {
				return &ParseError{Line: i + 1, Msg: fmt.Sprintf("malformed submodule section header %q", line)}
			}
			name := match[1]
			if prev, dup := names[name]; dup {
				return &ParseError{Line: i + 1, Msg: fmt.Sprintf("duplicate submodule name %q (first declared on line %d)", name, prev)}
			}
			names[name] = i + 1
			cur = &section{spec: Spec{Name: name}, start: i, keyLines: map[string]int{}}
			continue
		}
		if cur == nil {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			// a bare key is a valid boolean in git config; preserved raw
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = parseValue(value)
		switch key {
		case "path":
			if prev, dup := paths[value]; dup {
				return &ParseError{Line: i + 1, Msg: fmt.Sprintf("duplicate submodule path %q (first declared on line %d)", value, prev)}
			}
			paths[value] = i + 1
			cur.spec.Path = value
			cur.keyLines[key] = i
		case "url":
			cur.spec.URL = value
			cur.keyLines[key] = i
		case "branch":
			cur.spec.Branch = value
			cur.keyLines[key] = i
		}
	}
	closeCurrent(len(m.lines))
	return nil
}

// parseValue strips whitespace, surrounding quotes, and unquoted trailing
// comments from a config value.
func parseValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	if i := strings.IndexAny(v, ";#"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}

// Specs returns the declared submodules in file order.
func (m *Manifest) Specs() []Spec {
	specs := make([]Spec, 0, len(m.sections))
	for _, s := range m.sections {
		specs = append(specs, s.spec)
	}
	return specs
}

// Get returns the spec with the given name.
func (m *Manifest) Get(name string) (Spec, bool) {
	for _, s := range m.sections {
		if s.spec.Name == name {
			return s.spec, true
		}
	}
	return Spec{}, false
}

// ByPath returns the spec declared at the given path.
func (m *Manifest) ByPath(p string) (Spec, bool) {
	for _, s := range m.sections {
		if s.spec.Path == p {
			return s.spec, true
		}
	}
	return Spec{}, false
}

// NestingConflict returns the name of a declared submodule whose path
// contains, or is contained by, p.
func (m *Manifest) NestingConflict(p string) (string, bool) {
	clean := path.Clean(p)
	for _, s := range m.sections {
		other := path.Clean(s.spec.Path)
		if other == "." || clean == "." {
			continue
		}
		if strings.HasPrefix(clean+"/", other+"/") || strings.HasPrefix(other+"/", clean+"/") {
			return s.spec.Name, true
		}
	}
	return "", false
}

// Set adds or updates the section for spec.Name. For an existing section,
// only the lines holding changed values are touched; unrecognized keys and
// formatting of unchanged lines are preserved.
func (m *Manifest) Set(spec Spec) error {
	for _, s := range m.sections {
		if s.spec.Name != spec.Name {
			continue
		}
		m.patchKey(s, "path", spec.Path)
		m.patchKey(s, "url", spec.URL)
		m.patchKey(s, "branch", spec.Branch)
		return m.reparse()
	}

	if len(m.lines) > 0 && strings.TrimSpace(m.lines[len(m.lines)-1]) != "" {
		m.lines = append(m.lines, "")
	}
	m.lines = append(m.lines, fmt.Sprintf("[submodule %q]", spec.Name))
	if spec.Path != "" {
		m.lines = append(m.lines, "\tpath = "+spec.Path)
	}
	if spec.URL != "" {
		m.lines = append(m.lines, "\turl = "+spec.URL)
	}
	if spec.Branch != "" {
		m.lines = append(m.lines, "\tbranch = "+spec.Branch)
	}
	return m.reparse()
}

// patchKey rewrites, inserts, or deletes one key line inside a section.
// Line indices in s stay valid because exactly one line is spliced at a time
// and reparse follows before the section is used again.
func (m *Manifest) patchKey(s *section, key, value string) {
	idx, exists := s.keyLines[key]
	switch {
	case exists && value == "":
		m.lines = append(m.lines[:idx], m.lines[idx+1:]...)
		s.end--
		m.shiftKeyLines(s, idx)
	case exists:
		if s.spec.value(key) != value {
			m.lines[idx] = "\t" + key + " = " + value
		}
	case value != "":
		insert := s.lastKeyLine() + 1
		m.lines = append(m.lines[:insert], append([]string{"\t" + key + " = " + value}, m.lines[insert:]...)...)
		s.end++
		for k, i := range s.keyLines {
			if i >= insert {
				s.keyLines[k] = i + 1
			}
		}
		s.keyLines[key] = insert
	}
}

func (m *Manifest) shiftKeyLines(s *section, removed int) {
	for k, i := range s.keyLines {
		if i == removed {
			delete(s.keyLines, k)
		} else if i > removed {
			s.keyLines[k] = i - 1
		}
	}
}

func (s *section) lastKeyLine() int {
	last := s.start
	for _, i := range s.keyLines {
		if i > last {
			last = i
		}
	}
	return last
}

func (s Spec) value(key string) string {
	switch key {
	case "path":
		return s.Path
	case "url":
		return s.URL
	case "branch":
		return s.Branch
	}
	return ""
}

// Remove deletes the section for name, reporting whether it existed.
func (m *Manifest) Remove(name string) bool {
	for _, s := range m.sections {
		if s.spec.Name != name {
			continue
		}
		// the span includes the section's trailing blank separator, so the
		// surrounding sections keep their spacing
		m.lines = append(m.lines[:s.start], m.lines[s.end:]...)
		for len(m.lines) > 0 && strings.TrimSpace(m.lines[len(m.lines)-1]) == "" {
			m.lines = m.lines[:len(m.lines)-1]
		}
		if err := m.reparse(); err != nil {
			// removal cannot introduce new sections; reparse of a subset
			// of previously valid lines does not fail
			panic(err)
		}
		return true
	}
	return false
}

// Bytes serializes the manifest.
func (m *Manifest) Bytes() []byte {
	if len(m.lines) == 0 {
		return nil
	}
	out := strings.Join(m.lines, "\n")
	if m.trailingNewline {
		out += "\n"
	}
	return []byte(out)
}

// WriteTo writes the manifest to path. An empty manifest removes the file,
// matching git's behavior of not keeping an empty .gitmodules around.
func (m *Manifest) WriteTo(path string) error {
	data := m.Bytes()
	if len(data) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
