package gitcmd

import (
	"context"
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"git version 2.43.0", "2.43.0"},
		{"git version 2.43.0.windows.1", "2.43.0"},
		{"git version 2.35.1\n", "2.35.1"},
		{"2.39.2", "2.39.2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if err != nil {
				t.Fatalf("ParseVersion failed: %v", err)
			}
			if v.String() != tt.want {
				t.Errorf("got %s, want %s", v, tt.want)
			}
		})
	}
}

func TestParseVersion_Invalid(t *testing.T) {
	for _, input := range []string{"", "git version", "not a version"} {
		_, err := ParseVersion(input)
		if !errors.Is(err, ErrVersionParse) {
			t.Errorf("ParseVersion(%q): expected ErrVersionParse, got %v", input, err)
		}
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"2.35.0", true},
		{"2.43.0", true},
		{"3.0.0", true},
		{"2.34.9", false},
		{"1.9.0", false},
	}

	for _, tt := range tests {
		v, err := ParseVersion("git version " + tt.version)
		if err != nil {
			t.Fatalf("ParseVersion failed: %v", err)
		}
		if got := Supported(v); got != tt.want {
			t.Errorf("Supported(%s) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestVersion_FromRunner(t *testing.T) {
	script := NewScriptRunner(map[string]Result{
		"--version": {Stdout: "git version 2.40.1\n"},
	})
	v, err := Version(context.Background(), script)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v.String() != "2.40.1" {
		t.Errorf("got %s", v)
	}
}
