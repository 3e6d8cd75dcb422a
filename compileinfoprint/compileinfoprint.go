// compileinfoprint is imported for its side effect: the build provenance of
// the binary is printed to stderr before main runs.
package compileinfoprint

import "github.com/carbocation/mttscreen/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
