package compileinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	z := &debug.BuildInfo{
		GoVersion: "go1.24.5",
		Path:      "github.com/carbocation/mttscreen/cmd/mttscreen",
		Main:      debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "3f2a9c1"},
			{Key: "vcs.time", Value: "2024-03-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	c := fromBuildInfo(z)
	if c.Commit != "3f2a9c1" || !c.Modified {
		t.Errorf("unexpected %+v", c)
	}

	s := c.String()
	for _, want := range []string{"cmd/mttscreen", "go1.24.5", "3f2a9c1", "uncommitted"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
}

func TestStringWithoutVCS(t *testing.T) {
	c := CompileInfo{Package: "x", Version: "v1.0.0", GoVersion: "go1.24.5"}
	if s := c.String(); strings.Contains(s, "commit") {
		t.Errorf("expected no commit details in %q", s)
	}

	if s := (CompileInfo{}).String(); !strings.Contains(s, "unavailable") {
		t.Errorf("unexpected %q", s)
	}
}
