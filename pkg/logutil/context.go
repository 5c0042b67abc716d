package logutil

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/pretty"
)

type contextKey string

const (
	contextKeyMeta contextKey = "meta"
)

// meta is stored in the context. The base logger is kept separately from
// the derived one, so Start can rebuild the trace fields for the full path.
type meta struct {
	path []trace
	base *Logger
	log  *Logger
}

func (m meta) subsystem() string {
	subsystems := []string{"/"}

	for _, t := range m.path {
		subsystems = append(subsystems, t.subsystem)
	}

	return path.Join(subsystems...)
}

type trace struct {
	id        string
	subsystem string
}

// WithLogger stores l in the returned context and resets the subsystem
// path.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKeyMeta, meta{base: l, log: l})
}

// Get extracts the current logger from the given context. It returns a
// discarding logger, if there is none.
func Get(ctx context.Context) *Logger {
	m, ok := ctx.Value(contextKeyMeta).(meta)
	if !ok || m.log == nil {
		return Discard()
	}
	return m.log
}

// GetSubsystem extracts the name of the subsystem from the given context.
func GetSubsystem(ctx context.Context) string {
	m, ok := ctx.Value(contextKeyMeta).(meta)
	if !ok {
		return ""
	}
	return m.subsystem()
}

// Start derives a logger for a nested subsystem. It creates a new trace ID
// and adds it to the extra attributes together with the IDs of the parent
// subsystems.
func Start(ctx context.Context, subsystem string) context.Context {
	m, ok := ctx.Value(contextKeyMeta).(meta)
	if !ok || m.base == nil {
		m = meta{base: Discard()}
	}

	m.path = append(append([]trace{}, m.path...), trace{
		id:        newTraceID(),
		subsystem: subsystem,
	})

	ids := []string{}
	log := m.base

	for _, t := range m.path {
		name := fmt.Sprintf("trace-id-%s", slug.Make(t.subsystem))
		log = log.With(name, t.id)
		ids = append(ids, t.id)
	}

	m.log = log.With(
		"subsystem", m.subsystem(),
		"trace-id", strings.Join(ids, "-"),
	)

	return context.WithValue(ctx, contextKeyMeta, m)
}

func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// WithField returns a context whose logger carries an additional attribute.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithFields(ctx, map[string]any{key: value})
}

func WithFields(ctx context.Context, fields map[string]any) context.Context {
	m, ok := ctx.Value(contextKeyMeta).(meta)
	if !ok || m.log == nil {
		// Nothing to attach the fields to.
		return ctx
	}

	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	m.log = m.log.With(args...)

	return context.WithValue(ctx, contextKeyMeta, m)
}

// FromStruct converts any struct into a map for use as extra attributes.
// Field names are taken from the logfield annotation:
//
//	type Invocation struct {
//	    Service string `logfield:"service-name"`
//	    Branch  string `logfield:"branch-name"`
//	}
func FromStruct(s any) map[string]any {
	fields := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "logfield",
		Result:  &fields,
	})
	if err != nil {
		return map[string]any{"logfield-error": err}
	}

	err = dec.Decode(s)
	if err != nil {
		return map[string]any{"logfield-error": err}
	}

	return fields
}

// PrettyPrint renders v as indented JSON. With color set the output is
// highlighted for terminals. It falls back to fmt, if v cannot be encoded.
func PrettyPrint(v any, color bool) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}

	raw = pretty.PrettyOptions(raw, &pretty.Options{Indent: "    ", Width: 80})
	if color {
		raw = pretty.Color(raw, pretty.TerminalStyle)
	}

	return strings.TrimRight(string(raw), "\n")
}
