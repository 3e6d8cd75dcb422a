// Package compileinfo reports which source revision a binary was built from,
// so that analysis outputs can be traced back to the code that made them.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

type CompileInfo struct {
	Package    string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.Package == "" {
		return "Build information is unavailable for this binary."
	}

	out := fmt.Sprintf("%s %s (%s)", c.Package, c.Version, c.GoVersion)
	if c.Commit == "" {
		return out
	}

	out += fmt.Sprintf(", commit %s from %s", c.Commit, c.CommitTime)
	if c.Modified {
		out += " with uncommitted changes"
	}

	return out
}

// Get reads the build information embedded by the Go toolchain.
func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		GoVersion: z.GoVersion,
		Package:   z.Path,
		Version:   z.Main.Version,
	}

	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
