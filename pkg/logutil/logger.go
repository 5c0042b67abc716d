package logutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/pkg/errors"
	slograylog "github.com/samber/slog-graylog/v2"
	slogmulti "github.com/samber/slog-multi"

	"github.com/vm2r/sds/pkg/confutil"
)

var ErrNotInitialized = errors.New("logger requires an initialized configuration")

// Settings is the logging section of the configuration.
type Settings struct {
	Env         string `mapstructure:"env"`
	Level       string `mapstructure:"level"`
	TimeFormat  string `mapstructure:"time_format"`
	GELFAddress string `mapstructure:"gelf_address"`
}

type options struct {
	writer      io.Writer
	env         *Env
	level       *slog.Level
	gelfAddress *string
	noColor     bool
}

type Option func(*options)

func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithEnv overrides logging.env.
func WithEnv(env Env) Option {
	return func(o *options) { o.env = &env }
}

// WithLevel overrides logging.level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = &level }
}

// WithGELFAddress overrides logging.gelf_address. An empty address disables
// Graylog.
func WithGELFAddress(addr string) Option {
	return func(o *options) { o.gelfAddress = &addr }
}

func WithNoColor(noColor bool) Option {
	return func(o *options) { o.noColor = noColor }
}

// Logger writes typed entries to the configured destination. Copies created
// with At and With share the destination and the level.
type Logger struct {
	app     string
	at      string
	service string
	fields  map[string]any

	dst   Destination
	level *slog.LevelVar
	slog  *slog.Logger
}

// New creates the logger for app from the logging section of cfg.
func New(cfg *confutil.Config, app string, opts ...Option) (*Logger, error) {
	if cfg == nil {
		return nil, ErrNotInitialized
	}

	var settings Settings
	err := cfg.Decode("logging", &settings)
	if err != nil {
		return nil, errors.Wrap(err, "decode logging settings")
	}

	o := options{writer: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	env, err := ParseEnv(settings.Env)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if o.env != nil {
		env = *o.env
	}

	level, err := ParseLevel(settings.Level)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if o.level != nil {
		level = *o.level
	}

	gelfAddress := settings.GELFAddress
	if o.gelfAddress != nil {
		gelfAddress = *o.gelfAddress
	}

	var dst Destination
	switch env {
	case EnvLocal:
		dst = Local{Writer: o.writer, TimeFormat: settings.TimeFormat, NoColor: o.noColor}
	case EnvGCP:
		dst = GCP{Writer: o.writer}
	default:
		return nil, errors.Errorf("unhandled log environment %q", env)
	}

	lv := new(slog.LevelVar)
	lv.Set(level)

	handler := newHandler(dst, lv)

	if gelfAddress != "" {
		w, err := gelf.NewWriter(gelfAddress)
		if err != nil {
			return nil, errors.Wrapf(err, "connect to graylog at %s", gelfAddress)
		}

		handler = slogmulti.Fanout(
			handler,
			slograylog.Option{Level: lv, Writer: w}.NewGraylogHandler(),
		)
	}

	return &Logger{
		app:     app,
		service: cfg.GetString("service.name", ""),
		dst:     dst,
		level:   lv,
		slog:    slog.New(handler),
	}, nil
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	dst := Local{Writer: io.Discard, NoColor: true}
	lv := new(slog.LevelVar)
	return &Logger{
		dst:   dst,
		level: lv,
		slog:  slog.New(newHandler(dst, lv)),
	}
}

func (l *Logger) clone() *Logger {
	c := *l
	return &c
}

// At returns a copy of the logger that reports name as the call site.
func (l *Logger) At(name string) *Logger {
	c := l.clone()
	c.at = name
	return c
}

// With returns a copy of the logger that adds the given key-value pairs to
// the extra attributes of every entry.
func (l *Logger) With(args ...any) *Logger {
	add := fieldsFromArgs(args)
	if len(add) == 0 {
		return l
	}

	c := l.clone()
	c.fields = make(map[string]any, len(l.fields)+len(add))
	for k, v := range l.fields {
		c.fields[k] = v
	}
	for k, v := range add {
		c.fields[k] = v
	}
	return c
}

func (l *Logger) App() string { return l.app }

func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

func (l *Logger) Enabled(t Type) bool {
	return t.Level() >= l.level.Level()
}

// Slog exposes the underlying handler chain for libraries that expect a
// *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func (l *Logger) Debug(msg string, args ...any)   { l.log(TypeDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)    { l.log(TypeInfo, msg, args) }
func (l *Logger) Warning(msg string, args ...any) { l.log(TypeWarning, msg, args) }
func (l *Logger) Error(msg string, args ...any)   { l.log(TypeError, msg, args) }
func (l *Logger) Fatal(msg string, args ...any)   { l.log(TypeFatal, msg, args) }

// Sys records lifecycle messages like start and shutdown.
func (l *Logger) Sys(msg string, args ...any) { l.log(TypeSys, msg, args) }

// Exception records an error together with its detailed representation,
// which includes the stack trace for errors created with pkg/errors.
func (l *Logger) Exception(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
		if verbose := fmt.Sprintf("%+v", err); verbose != err.Error() {
			args = append(args, "stacktrace", verbose)
		}
	}
	l.log(TypeException, msg, args)
}

// Perf records a metric like an elapsed time or a counter. The message has
// the form key|value or key|value|unit.
func (l *Logger) Perf(key string, value any, unit string, args ...any) {
	msg := fmt.Sprintf("%s|%v", key, value)
	if unit != "" {
		msg = fmt.Sprintf("%s|%s", msg, unit)
	}
	l.log(TypePerf, msg, args)
}

type APIRequestInfo struct {
	Method     string
	StatusCode int
	TrackingID string
	Benchmark  any
}

// APIRequest records a served request. The route is used as message.
func (l *Logger) APIRequest(route string, payload, response any, info APIRequestInfo) {
	l.log(TypeAPIRequest, route, []any{
		"by", l.service,
		"method", info.Method,
		"route", route,
		"payload", payload,
		"benchmark", info.Benchmark,
		"response", map[string]any{
			"payload":     response,
			"status_code": info.StatusCode,
		},
		"tracking_id", info.TrackingID,
	})
}

func (l *Logger) log(t Type, msg string, args []any) {
	if !l.Enabled(t) {
		return
	}

	var extra map[string]any
	add := fieldsFromArgs(args)
	if len(l.fields)+len(add) > 0 {
		extra = make(map[string]any, len(l.fields)+len(add))
		for k, v := range l.fields {
			extra[k] = normalize(v)
		}
		for k, v := range add {
			extra[k] = normalize(v)
		}
	}

	emit(context.Background(), l.dst, l.slog, Entry{
		Type:    t,
		Message: msg,
		App:     l.app,
		At:      l.at,
		Extra:   extra,
	})
}
