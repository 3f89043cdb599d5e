package ringtone

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EmbeddedSounds contains the ringtones shipped with ringd.
//
//go:embed sounds/*
var EmbeddedSounds embed.FS

// DefaultName is the name of the bundled default ringtone.
const DefaultName = "ringtone_default"

// Bundle looks up bundled ringtones by name. Files in an optional user
// directory take precedence over the embedded set.
type Bundle struct {
	embedded fs.FS
	dir      string
}

// NewBundle creates a Bundle. dir may be empty.
func NewBundle(dir string) *Bundle {
	sub, err := fs.Sub(EmbeddedSounds, "sounds")
	if err != nil {
		// Only possible if the embed pattern changes
		panic(err)
	}
	return &Bundle{embedded: sub, dir: dir}
}

// newBundleFS creates a Bundle over an arbitrary filesystem.
func newBundleFS(fsys fs.FS, dir string) *Bundle {
	return &Bundle{embedded: fsys, dir: dir}
}

// Lookup finds a bundled ringtone by name. The name may omit the file
// extension. Returns ErrNotFound if nothing matches.
func (b *Bundle) Lookup(name string) (URI, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	if b.dir != "" {
		file, err := findByName(os.DirFS(b.dir), name)
		if err == nil {
			return FileURI(filepath.Join(b.dir, file)), nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}

	file, err := findByName(b.embedded, name)
	if err != nil {
		return "", err
	}
	return BundledURI(file), nil
}

// findByName returns the first supported file whose name, with or without
// extension, matches name.
func findByName(fsys fs.FS, name string) (string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to read bundle: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		file := entry.Name()
		base := strings.TrimSuffix(file, filepath.Ext(file))
		if file == name || base == name {
			return file, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Names returns the names of all bundled ringtones, without extensions.
func (b *Bundle) Names() []string {
	seen := make(map[string]bool)
	var names []string

	add := func(fsys fs.FS) {
		entries, err := fs.ReadDir(fsys, ".")
		if err != nil {
			return
		}
		for _, entry := range entries {
			if entry.IsDir() || !IsSupported(entry.Name()) {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	if b.dir != "" {
		add(os.DirFS(b.dir))
	}
	add(b.embedded)

	sort.Strings(names)
	return names
}

// Open opens the resource behind a bundled or file URI.
func (b *Bundle) Open(u URI) (io.ReadCloser, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	if u.IsFile() {
		f, err := os.Open(u.Path())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
			}
			return nil, err
		}
		return f, nil
	}

	f, err := b.embedded.Open(u.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
		}
		return nil, err
	}
	return f, nil
}

// Stat returns file information for a bundled or file URI.
func (b *Bundle) Stat(u URI) (fs.FileInfo, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if u.IsFile() {
		return os.Stat(u.Path())
	}
	return fs.Stat(b.embedded, u.Path())
}
