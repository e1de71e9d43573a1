package proc

import (
	"bytes"
	"strings"
)

// DisplayName rebuilds a printable command line from the NUL-separated
// cmdline bytes, collapsing runs of whitespace. Kernel threads and zombies
// have an empty cmdline; comm is returned for them.
func DisplayName(comm string, cmdline []byte) string {
	if len(cmdline) > 0 {
		s := string(bytes.ReplaceAll(cmdline, []byte{0}, []byte{' '}))
		if name := strings.Join(strings.Fields(s), " "); name != "" {
			return name
		}
	}
	return comm
}
