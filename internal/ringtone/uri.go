package ringtone

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// URI schemes.
const (
	SchemeBundled = "bundled:"
	SchemeFile    = "file://"
)

var (
	// ErrNotFound is returned when a ringtone resource does not exist.
	ErrNotFound = errors.New("ringtone not found")
	// ErrInvalidURI is returned for URIs with an unknown scheme.
	ErrInvalidURI = errors.New("invalid ringtone URI")
)

// URI identifies a playable ringtone resource.
type URI string

// BundledURI returns the URI of a bundled ringtone file.
func BundledURI(file string) URI {
	return URI(SchemeBundled + file)
}

// FileURI returns the URI of a file on disk.
func FileURI(path string) URI {
	return URI(SchemeFile + filepath.Clean(path))
}

// IsBundled reports whether the URI refers to a bundled ringtone.
func (u URI) IsBundled() bool {
	return strings.HasPrefix(string(u), SchemeBundled)
}

// IsFile reports whether the URI refers to a file on disk.
func (u URI) IsFile() bool {
	return strings.HasPrefix(string(u), SchemeFile)
}

// Path returns the bundled file name or the filesystem path.
func (u URI) Path() string {
	switch {
	case u.IsBundled():
		return strings.TrimPrefix(string(u), SchemeBundled)
	case u.IsFile():
		return strings.TrimPrefix(string(u), SchemeFile)
	default:
		return ""
	}
}

// Ext returns the lowercased file extension.
func (u URI) Ext() string {
	return strings.ToLower(filepath.Ext(u.Path()))
}

// Validate checks the URI scheme.
func (u URI) Validate() error {
	if (!u.IsBundled() && !u.IsFile()) || u.Path() == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURI, string(u))
	}
	return nil
}

func (u URI) String() string {
	return string(u)
}

// SupportedExtensions lists the audio formats the players can decode.
var SupportedExtensions = []string{".oga", ".ogg", ".wav", ".mp3"}

// IsSupported reports whether the file extension is a playable format.
func IsSupported(name string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(name)))
}

// ResolutionError describes a failed resolution step.
type ResolutionError struct {
	Name string // Requested name
	Step string // Step that failed
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve ringtone %q: %s: %v", e.Name, e.Step, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
