package confutil

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "config.yaml"
	EnvVar   = "CONFIG_YAML"
)

var (
	ErrNotFound = errors.New("config not found")
	ErrParse    = errors.New("config parse error")
)

// SourceKind describes where a configuration snapshot was read from.
type SourceKind string

const (
	SourceFile  SourceKind = "file"
	SourceEnv   SourceKind = "env"
	SourceBytes SourceKind = "bytes"
)

type Source struct {
	Kind SourceKind
	Name string
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.Name)
}

// Config is an immutable snapshot of a parsed configuration document.
type Config struct {
	data   map[string]any
	source Source
}

type loadOptions struct {
	lookupEnv func(string) (string, bool)
	fileName  string
	envVar    string
}

type LoadOption func(*loadOptions)

// WithLookupEnv replaces os.LookupEnv for the environment fallback.
func WithLookupEnv(fn func(string) (string, bool)) LoadOption {
	return func(o *loadOptions) {
		o.lookupEnv = fn
	}
}

func WithFileName(name string) LoadOption {
	return func(o *loadOptions) {
		o.fileName = name
	}
}

func WithEnvVar(name string) LoadOption {
	return func(o *loadOptions) {
		o.envVar = name
	}
}

// Load reads config.yaml from fsys and falls back to the CONFIG_YAML
// environment variable. fsys may be nil, in which case only the environment
// is consulted.
func Load(fsys fs.FS, opts ...LoadOption) (*Config, error) {
	o := loadOptions{
		lookupEnv: os.LookupEnv,
		fileName:  FileName,
		envVar:    EnvVar,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if fsys != nil {
		raw, err := fs.ReadFile(fsys, o.fileName)
		switch {
		case err == nil:
			return parse(raw, Source{Kind: SourceFile, Name: o.fileName})
		case errors.Is(err, fs.ErrNotExist):
			// fall through to the environment
		default:
			return nil, errors.Wrapf(err, "read %s", o.fileName)
		}
	}

	content, ok := o.lookupEnv(o.envVar)
	if ok {
		return parse([]byte(content), Source{Kind: SourceEnv, Name: o.envVar})
	}

	return nil, errors.Wrapf(ErrNotFound, "missing config file %s or environment variable %s",
		o.fileName, o.envVar)
}

// Parse creates a snapshot from raw YAML content.
func Parse(raw []byte) (*Config, error) {
	return parse(raw, Source{Kind: SourceBytes, Name: "inline"})
}

func parse(raw []byte, source Source) (*Config, error) {
	var doc any
	err := yaml.Unmarshal(raw, &doc)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%s: %v", source, err)
	}

	data, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrParse, "%s: top-level document must be a mapping, got %T",
			source, doc)
	}

	return &Config{data: data, source: source}, nil
}

func (c *Config) Source() Source {
	return c.source
}

// Lookup walks the dot-separated path and returns the value at its end.
// Mappings and lists are returned as copies, so the snapshot stays
// unchanged.
func (c *Config) Lookup(path string) (any, bool) {
	v, ok := c.lookup(path)
	if !ok {
		return nil, false
	}
	return clone(v), true
}

func (c *Config) lookup(path string) (any, bool) {
	var current any = c.data
	if path == "" {
		return current, true
	}

	for _, part := range strings.Split(path, ".") {
		level, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = level[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Get returns the value at path or def when the path does not resolve.
func (c *Config) Get(path string, def any) any {
	v, ok := c.Lookup(path)
	if !ok {
		return def
	}
	return v
}

func (c *Config) GetString(path string, def string) string {
	return get(c, path, def, cast.ToStringE)
}

func (c *Config) GetInt(path string, def int) int {
	return get(c, path, def, cast.ToIntE)
}

func (c *Config) GetBool(path string, def bool) bool {
	return get(c, path, def, cast.ToBoolE)
}

func (c *Config) GetDuration(path string, def time.Duration) time.Duration {
	return get(c, path, def, cast.ToDurationE)
}

func (c *Config) GetStringSlice(path string, def []string) []string {
	return get(c, path, def, cast.ToStringSliceE)
}

func get[T any](c *Config, path string, def T, conv func(any) (T, error)) T {
	v, ok := c.lookup(path)
	if !ok || v == nil {
		return def
	}

	t, err := conv(v)
	if err != nil {
		return def
	}

	return t
}

// Sub returns a snapshot rooted at path, if path points to a mapping.
func (c *Config) Sub(path string) (*Config, bool) {
	v, ok := c.Lookup(path)
	if !ok {
		return nil, false
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}

	return &Config{
		data:   m,
		source: Source{Kind: c.source.Kind, Name: c.source.Name + "#" + path},
	}, true
}

// Decode decodes the subtree at path into out using mapstructure. A missing
// path leaves out untouched.
func (c *Config) Decode(path string, out any) error {
	v, ok := c.Lookup(path)
	if !ok {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Wrapf(err, "create decoder for %q", path)
	}

	err = dec.Decode(v)
	if err != nil {
		return errors.Wrapf(err, "decode %q", path)
	}

	return nil
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		c := maps.Clone(t)
		for k, e := range c {
			c[k] = clone(e)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = clone(e)
		}
		return c
	default:
		return v
	}
}
