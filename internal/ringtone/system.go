package ringtone

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmylchreest/ringd/internal/config"
)

// IncomingCallSound is the freedesktop sound naming spec name for a ringtone.
const IncomingCallSound = "phone-incoming-call"

// fallbackTheme is searched when the configured theme lacks a sound.
const fallbackTheme = "freedesktop"

// ThemeSystem exposes the desktop sound theme as the system ringtone provider.
type ThemeSystem struct {
	theme     string
	override  string
	extraDirs []string
	dataDirs  []string
}

// NewThemeSystem creates a ThemeSystem from the ringtone configuration.
// Data directories follow the XDG base directory spec.
func NewThemeSystem(cfg config.RingtoneConfig) *ThemeSystem {
	extra := make([]string, 0, len(cfg.SoundDirs))
	for _, d := range cfg.SoundDirs {
		extra = append(extra, config.ExpandPath(d))
	}
	return &ThemeSystem{
		theme:     cfg.Theme,
		override:  config.ExpandPath(cfg.SystemDefault),
		extraDirs: extra,
		dataDirs:  xdgDataDirs(),
	}
}

// xdgDataDirs returns $XDG_DATA_HOME followed by $XDG_DATA_DIRS.
func xdgDataDirs() []string {
	var dirs []string

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		dirs = append(dirs, dataHome)
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// themes returns the configured theme and its fallback.
func (s *ThemeSystem) themes() []string {
	if s.theme == "" || s.theme == fallbackTheme {
		return []string{fallbackTheme}
	}
	return []string{s.theme, fallbackTheme}
}

// DefaultURI returns the actual default ringtone.
func (s *ThemeSystem) DefaultURI() (URI, error) {
	if s.override != "" {
		info, err := os.Stat(s.override)
		if err != nil {
			return "", fmt.Errorf("configured system default: %w", err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("configured system default %s is a directory", s.override)
		}
		return FileURI(s.override), nil
	}

	for _, theme := range s.themes() {
		for _, dir := range s.dataDirs {
			stereo := filepath.Join(dir, "sounds", theme, "stereo")
			for _, ext := range SupportedExtensions {
				path := filepath.Join(stereo, IncomingCallSound+ext)
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					return FileURI(path), nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w: no %s sound in theme %q", ErrNotFound, IncomingCallSound, s.theme)
}

// listDirs returns the directories scanned for the system ringtone list.
func (s *ThemeSystem) listDirs() []string {
	var dirs []string
	for _, dir := range s.dataDirs {
		for _, theme := range s.themes() {
			dirs = append(dirs, filepath.Join(dir, "sounds", theme, "stereo"))
		}
		dirs = append(dirs, filepath.Join(dir, "sounds", "ringtones"))
	}
	return append(dirs, s.extraDirs...)
}

// List returns every playable sound in the system ringtone directories,
// sorted by path.
func (s *ThemeSystem) List() ([]URI, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, dir := range s.listDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !IsSupported(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}

	sort.Strings(paths)

	uris := make([]URI, 0, len(paths))
	for _, p := range paths {
		uris = append(uris, FileURI(p))
	}
	return uris, nil
}
