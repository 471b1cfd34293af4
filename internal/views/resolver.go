package views

import (
	"io"
	"io/fs"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// DefaultPrefix is the directory plugin templates live in
	DefaultPrefix = "hbs/"
	// DefaultSuffix is the file extension of plugin templates
	DefaultSuffix = ".hbs"
)

// ErrTemplateNotFound is returned when no resource exists at the resolved location
var ErrTemplateNotFound = errors.New("template not found")

// ResourceLoader looks up raw resources by slash separated path
type ResourceLoader interface {
	GetResource(path string) (io.ReadCloser, bool)
}

// TemplateSource is an open template resource. Callers close it.
type TemplateSource struct {
	io.ReadCloser
	// Location is the loader path the template was found at
	Location string
}

// Content reads the whole template and closes the source
func (s TemplateSource) Content() ([]byte, error) {
	defer s.Close()
	data, err := io.ReadAll(s)
	return data, errors.Wrapf(err, "failed to read template %s", s.Location)
}

// TemplateResolver maps logical template names to template sources
type TemplateResolver interface {
	Resolve(name string) (TemplateSource, error)
}

// Resolver resolves names as <Prefix><name><Suffix> against a loader
type Resolver struct {
	loader ResourceLoader
	prefix string
	suffix string
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithPrefix replaces DefaultPrefix. A missing trailing slash is added.
func WithPrefix(prefix string) Option {
	return func(r *Resolver) {
		prefix = strings.TrimPrefix(prefix, "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		r.prefix = prefix
	}
}

// WithSuffix replaces DefaultSuffix
func WithSuffix(suffix string) Option {
	return func(r *Resolver) { r.suffix = suffix }
}

// NewResolver creates a resolver over loader with the hbs/ and .hbs convention
func NewResolver(loader ResourceLoader, opts ...Option) *Resolver {
	r := &Resolver{loader: loader, prefix: DefaultPrefix, suffix: DefaultSuffix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the loader path for name: a leading slash and an existing
// suffix are stripped before the prefix and suffix are added
func (r *Resolver) Location(name string) string {
	name = strings.TrimSuffix(name, r.suffix)
	name = strings.TrimPrefix(name, "/")
	return r.prefix + name + r.suffix
}

// Resolve opens the template for name
func (r *Resolver) Resolve(name string) (TemplateSource, error) {
	location := r.Location(name)
	rc, ok := r.loader.GetResource(location)
	if !ok {
		klog.V(4).InfoS("Template not found", "name", name, "location", location)
		return TemplateSource{}, errors.Wrap(ErrTemplateNotFound, location)
	}
	return TemplateSource{ReadCloser: rc, Location: location}, nil
}

// FSLoader serves resources from an fs.FS such as an embed.FS or os.DirFS
type FSLoader struct {
	fsys fs.FS
}

// NewFSLoader creates a loader over fsys
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

// GetResource opens path. Directories and invalid paths are absent.
func (l *FSLoader) GetResource(path string) (io.ReadCloser, bool) {
	if !fs.ValidPath(path) {
		return nil, false
	}
	f, err := l.fsys.Open(path)
	if err != nil {
		return nil, false
	}
	if info, err := f.Stat(); err != nil || info.IsDir() {
		_ = f.Close()
		return nil, false
	}
	return f, true
}

// ChainLoader asks each loader in turn; the first hit wins
type ChainLoader []ResourceLoader

// GetResource implements ResourceLoader
func (c ChainLoader) GetResource(path string) (io.ReadCloser, bool) {
	for _, l := range c {
		if rc, ok := l.GetResource(path); ok {
			return rc, true
		}
	}
	return nil, false
}
