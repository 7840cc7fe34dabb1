package template

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

// Loader implements ports.TemplateLoader over a directory of template files.
// Each file <name>.{yaml,yml,json,toml} declares one dialogue.
// Parsed templates are cached until Watch reports a change.
type Loader struct {
	fsys fs.FS
	dir  string

	mu    sync.RWMutex
	cache map[string]*domain.Template

	logger   *slog.Logger
	debounce time.Duration
}

// Option configures the Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDebounce sets how long Watch waits for a burst of file events to settle.
func WithDebounce(d time.Duration) Option {
	return func(l *Loader) {
		l.debounce = d
	}
}

// New creates a loader reading templates from a directory on disk.
func New(dir string, opts ...Option) *Loader {
	l := NewFS(os.DirFS(dir), opts...)
	l.dir = dir
	return l
}

// NewFS creates a loader over an arbitrary file system, such as an embed.FS.
// Loaders built this way cannot be watched.
func NewFS(fsys fs.FS, opts ...Option) *Loader {
	l := &Loader{
		fsys:     fsys,
		cache:    make(map[string]*domain.Template),
		logger:   logging.NewNop(),
		debounce: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the template of the named dialogue.
func (l *Loader) Load(ctx context.Context, dialogue string) (*domain.Template, error) {
	l.mu.RLock()
	cached, ok := l.cache[dialogue]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	file, err := l.find(dialogue)
	if err != nil {
		return nil, err
	}
	tmpl, err := l.parseFile(file, dialogue)
	if err != nil {
		return nil, err
	}
	if tmpl.Name != dialogue {
		return nil, fmt.Errorf("%w: %s declares dialogue %q", domain.ErrInvalidTemplate, file, tmpl.Name)
	}

	l.mu.Lock()
	l.cache[dialogue] = tmpl
	l.mu.Unlock()
	l.logger.Debug("template loaded", "dialogue", dialogue, "file", file, "resources", len(tmpl.Resources))
	return tmpl, nil
}

// List returns the names of all template files.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}
	seen := make(map[string]bool)
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := FormatOf(e.Name()); !ok {
			continue
		}
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadFile parses a single template file from disk, independent of any loader.
func LoadFile(file string) (*domain.Template, error) {
	format, ok := FormatOf(file)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported template file %s", domain.ErrInvalidTemplate, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	return Parse(data, format, strings.TrimSuffix(base, path.Ext(base)))
}

// Invalidate drops cached templates so the next Load rereads the files.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.cache)
}

func (l *Loader) find(dialogue string) (string, error) {
	if dialogue == "" || strings.ContainsAny(dialogue, `/\`) || strings.Contains(dialogue, "..") {
		return "", fmt.Errorf("%w: %q", domain.ErrDialogueNotFound, dialogue)
	}
	for _, ext := range []string{".yaml", ".yml", ".json", ".toml"} {
		file := dialogue + ext
		if _, err := fs.Stat(l.fsys, file); err == nil {
			return file, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %s: %w", file, err)
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrDialogueNotFound, dialogue)
}

func (l *Loader) parseFile(file, dialogue string) (*domain.Template, error) {
	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", file, err)
	}
	format, _ := FormatOf(file)
	tmpl, err := Parse(data, format, dialogue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return tmpl, nil
}
