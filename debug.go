package stagehand

import (
	"fmt"
	"os"
)

// SetDebugMode enables or disables debug mode. When enabled, every
// dispatched event, mark, and runner step is logged to stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// debugLog prints a prefixed line to stderr when debug mode is on.
func (s *Scene) debugLog(format string, args ...any) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[stagehand] "+format+"\n", args...)
}
