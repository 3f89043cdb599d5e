package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/jmylchreest/ringd/internal/ringtone"
)

// paplayFullVolume is the paplay --volume value for 100%.
const paplayFullVolume = 65536

// ErrNoPlayer is returned when neither paplay nor aplay is installed.
var ErrNoPlayer = errors.New("no external audio player found (paplay, aplay)")

// CommandBackend plays ringtones by running an external player. It cannot
// loop, so a ringtone plays once.
type CommandBackend struct {
	mu     sync.Mutex
	logger *slog.Logger
	opener Opener
	volume float64

	// Bundled ringtones extracted to disk, keyed by URI
	extracted map[ringtone.URI]string
	tempDir   string

	lookPath func(string) (string, error)
	start    func(name string, args ...string) (process, error)
}

// process is a started player.
type process interface {
	Kill() error
	Wait() error
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Kill() error { return p.cmd.Process.Kill() }
func (p *execProcess) Wait() error { return p.cmd.Wait() }

func startProcess(name string, args ...string) (process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

// NewCommandBackend creates a backend that shells out to paplay or aplay.
func NewCommandBackend(opener Opener, logger *slog.Logger) *CommandBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandBackend{
		logger:    logger,
		opener:    opener,
		volume:    1.0,
		extracted: make(map[ringtone.URI]string),
		lookPath:  exec.LookPath,
		start:     startProcess,
	}
}

// SupportsLooping implements Backend.
func (b *CommandBackend) SupportsLooping() bool {
	return false
}

// SetVolume implements Backend. aplay ignores it.
func (b *CommandBackend) SetVolume(volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = clampVolume(volume)
}

// Open implements Backend.
func (b *CommandBackend) Open(uri ringtone.URI) (Ringtone, error) {
	if err := uri.Validate(); err != nil {
		return nil, &PlaybackError{URI: uri, Op: "open", Err: err}
	}
	if !ringtone.IsSupported(uri.Path()) {
		return nil, &PlaybackError{URI: uri, Op: "open", Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, uri.Ext())}
	}

	path, err := b.localPath(uri)
	if err != nil {
		return nil, &PlaybackError{URI: uri, Op: "open", Err: err}
	}

	name, args, err := b.command(path)
	if err != nil {
		return nil, &PlaybackError{URI: uri, Op: "open", Err: err}
	}

	return &commandRingtone{backend: b, uri: uri, name: name, args: args}, nil
}

// localPath returns a filesystem path for uri, extracting bundled
// ringtones into a temporary directory on first use.
func (b *CommandBackend) localPath(uri ringtone.URI) (string, error) {
	if uri.IsFile() {
		if _, err := os.Stat(uri.Path()); err != nil {
			return "", err
		}
		return uri.Path(), nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if path, ok := b.extracted[uri]; ok {
		return path, nil
	}

	if b.opener == nil {
		return "", fmt.Errorf("no opener for bundled ringtone")
	}

	if b.tempDir == "" {
		dir, err := os.MkdirTemp("", "ringd-")
		if err != nil {
			return "", fmt.Errorf("failed to create temp dir: %w", err)
		}
		b.tempDir = dir
	}

	rc, err := b.opener.Open(uri)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	f, err := os.CreateTemp(b.tempDir, "ringtone-*"+uri.Ext())
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to extract ringtone: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	b.extracted[uri] = f.Name()
	b.logger.Debug("extracted bundled ringtone", "uri", uri, "path", f.Name())
	return f.Name(), nil
}

// command picks the player and its arguments for path. aplay treats
// anything but WAV as raw PCM, so other formats are refused when paplay
// is missing.
func (b *CommandBackend) command(path string) (string, []string, error) {
	b.mu.Lock()
	volume := b.volume
	b.mu.Unlock()

	if player, err := b.lookPath("paplay"); err == nil {
		return player, []string{
			"--property=media.role=phone",
			"--volume=" + strconv.Itoa(int(volume*paplayFullVolume)),
			path,
		}, nil
	}
	if player, err := b.lookPath("aplay"); err == nil {
		if ext := filepath.Ext(path); !strings.EqualFold(ext, ".wav") {
			return "", nil, fmt.Errorf("%w for aplay: %s", ErrUnsupportedFormat, ext)
		}
		return player, []string{"-q", path}, nil
	}
	return "", nil, ErrNoPlayer
}

// Close removes extracted ringtones.
func (b *CommandBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tempDir != "" {
		if err := os.RemoveAll(b.tempDir); err != nil {
			b.logger.Warn("failed to remove extracted ringtones", "dir", b.tempDir, "error", err)
		}
		b.tempDir = ""
	}
	b.extracted = make(map[ringtone.URI]string)
}

// commandRingtone is one run of the external player.
type commandRingtone struct {
	backend *CommandBackend
	uri     ringtone.URI
	name    string
	args    []string

	mu   sync.Mutex
	proc process
}

// Play implements Ringtone. loop is ignored.
func (r *commandRingtone) Play(loop bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.proc != nil {
		return nil
	}

	proc, err := r.backend.start(r.name, r.args...)
	if err != nil {
		return &PlaybackError{URI: r.uri, Op: "play", Err: err}
	}
	r.proc = proc

	// Reap the player when it finishes on its own.
	go func() { _ = proc.Wait() }()

	r.backend.logger.Debug("ringtone playing", "uri", r.uri, "player", r.name, "loop", false)
	return nil
}

// Stop implements Ringtone.
func (r *commandRingtone) Stop() {
	r.mu.Lock()
	proc := r.proc
	r.proc = nil
	r.mu.Unlock()

	if proc == nil {
		return
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.backend.logger.Debug("failed to stop player", "uri", r.uri, "error", err)
	}
}
