package ringtone

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/jmylchreest/ringd/internal/model"
)

// Resources looks up bundled ringtones.
type Resources interface {
	Lookup(name string) (URI, error)
}

// System exposes the platform's ringtones.
type System interface {
	DefaultURI() (URI, error)
	List() ([]URI, error)
}

// Source records which step of the fallback chain produced a URI.
type Source int

const (
	SourceNone Source = iota
	SourceBundled
	SourceBundledDefault
	SourceSystemDefault
	SourceSystemList
)

func (s Source) String() string {
	switch s {
	case SourceBundled:
		return "bundled"
	case SourceBundledDefault:
		return "bundled-default"
	case SourceSystemDefault:
		return "system-default"
	case SourceSystemList:
		return "system-list"
	default:
		return "none"
	}
}

// Resolution is the outcome of resolving a ringtone name.
type Resolution struct {
	URI    URI
	Source Source
}

// Found reports whether a playable URI was resolved.
func (r Resolution) Found() bool {
	return r.Source != SourceNone && r.URI != ""
}

// Resolver maps requested ringtone names to URIs.
type Resolver struct {
	resources Resources
	system    System
	logger    *slog.Logger
}

// NewResolver creates a Resolver. Either collaborator may be nil, in which
// case the steps that need it are skipped.
func NewResolver(resources Resources, system System, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		resources: resources,
		system:    system,
		logger:    logger,
	}
}

// Resolve never fails: a zero Resolution means the call rings silently.
func (r *Resolver) Resolve(name string) Resolution {
	switch {
	case name == "":
		return r.defaultChain(name, false)
	case model.IsSystemDefault(name):
		return r.defaultChain(name, true)
	}

	uri, err := r.lookup(name)
	if err == nil {
		return Resolution{URI: uri, Source: SourceBundled}
	}
	r.debugFailure(&ResolutionError{Name: name, Step: "bundled", Err: err})
	return r.defaultChain(name, false)
}

// defaultChain tries the bundled default (unless skipped), then the system
// default, then the system list.
func (r *Resolver) defaultChain(name string, useSystemDefault bool) Resolution {
	if !useSystemDefault {
		uri, err := r.lookup(DefaultName)
		if err == nil {
			return Resolution{URI: uri, Source: SourceBundledDefault}
		}
		r.debugFailure(&ResolutionError{Name: name, Step: "bundled default", Err: err})
	}

	if r.system == nil {
		return Resolution{}
	}

	uri, err := r.system.DefaultURI()
	if err == nil && uri != "" {
		return Resolution{URI: uri, Source: SourceSystemDefault}
	}
	if err == nil {
		err = ErrNotFound
	}
	r.debugFailure(&ResolutionError{Name: name, Step: "system default", Err: err})

	return r.safeSystemRingtone(name)
}

// safeSystemRingtone prefers the system default if it appears in the list,
// otherwise the first listed ringtone.
func (r *Resolver) safeSystemRingtone(name string) Resolution {
	def, _ := r.system.DefaultURI()

	list, err := r.system.List()
	if err != nil {
		r.logger.Warn("failed to list system ringtones", "name", name, "error", err)
		return Resolution{}
	}

	if def != "" && slices.Contains(list, def) {
		return Resolution{URI: def, Source: SourceSystemList}
	}
	if len(list) > 0 {
		return Resolution{URI: list[0], Source: SourceSystemList}
	}

	r.logger.Debug("no ringtone resolved", "name", name)
	return Resolution{}
}

func (r *Resolver) lookup(name string) (URI, error) {
	if r.resources == nil {
		return "", ErrNotFound
	}
	return r.resources.Lookup(name)
}

func (r *Resolver) debugFailure(err *ResolutionError) {
	if errors.Is(err, ErrNotFound) {
		r.logger.Debug("ringtone step skipped", "error", err)
		return
	}
	r.logger.Warn("ringtone step failed", "error", err)
}
