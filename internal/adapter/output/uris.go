package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/ringd/internal/ringtone"
)

// URIsFormatter outputs just the ringtone URIs, one per line.
// Useful for piping to other commands (e.g., fzf | ringctl play).
type URIsFormatter struct{}

// NewURIsFormatter creates a new URIs formatter.
func NewURIsFormatter() *URIsFormatter {
	return &URIsFormatter{}
}

// Format writes URIs to the writer, one per line.
func (f *URIsFormatter) Format(w io.Writer, entries []ringtone.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.URI); err != nil {
			return err
		}
	}
	return nil
}
