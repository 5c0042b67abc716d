package logutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Entry is the structured payload of a single log call.
type Entry struct {
	Type    Type
	Message string
	App     string
	At      string
	Extra   map[string]any
}

// Line renders the entry in the console format: the predefined fields
// first, then the app and the extra attributes as one JSON object.
func (e Entry) Line() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s|%s|%s|app:%s|", e.Type, e.At, e.Message, e.App)

	if len(e.Extra) > 0 {
		raw, err := json.Marshal(e.Extra)
		if err != nil {
			fmt.Fprintf(&b, "extra:%v|", e.Extra)
		} else {
			fmt.Fprintf(&b, "extra:%s|", raw)
		}
	}

	return b.String()
}

// Attrs returns the entry fields as slog attributes. The message is not
// included, since slog records carry it separately.
func (e Entry) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("type", e.Type.String()),
		slog.String("app", e.App),
		slog.String("at", e.At),
	}

	if len(e.Extra) > 0 {
		extra := make([]any, 0, len(e.Extra))
		for _, k := range e.keys() {
			extra = append(extra, slog.Any(k, e.Extra[k]))
		}
		attrs = append(attrs, slog.Group("extra", extra...))
	}

	return attrs
}

func (e Entry) keys() []string {
	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fieldsFromArgs converts slog style key-value arguments into a map.
func fieldsFromArgs(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}

	fields := map[string]any{}
	for len(args) > 0 {
		switch x := args[0].(type) {
		case slog.Attr:
			fields[x.Key] = x.Value.Any()
			args = args[1:]
		case string:
			if len(args) == 1 {
				fields["!BADKEY"] = x
				args = nil
				continue
			}
			fields[x] = args[1]
			args = args[2:]
		default:
			fields["!BADKEY"] = x
			args = args[1:]
		}
	}

	return fields
}

// normalize makes extra attributes safe for both the console and the JSON
// encoder. Byte slices become strings, errors become their message.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return strings.ToValidUTF8(string(x), "�")
	case error:
		return x.Error()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = normalize(v)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = normalize(v)
		}
		return out
	default:
		return v
	}
}
