package logutil

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelFatal sits above slog.LevelError.
const LevelFatal = slog.LevelError + 4

// Type classifies an entry. Every Type maps to exactly one slog level.
type Type int

const (
	TypeInfo Type = iota
	TypeWarning
	TypeError
	TypeException
	TypeFatal
	TypeDebug
	TypeSys
	TypePerf
	TypeAPIRequest
)

func (t Type) String() string {
	switch t {
	case TypeInfo:
		return "INFO"
	case TypeWarning:
		return "WARNING"
	case TypeError:
		return "ERROR"
	case TypeException:
		return "EXCEPTION"
	case TypeFatal:
		return "FATAL"
	case TypeDebug:
		return "DEBUG"
	case TypeSys:
		return "SYS"
	case TypePerf:
		return "PERF"
	case TypeAPIRequest:
		return "API_REQUEST"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

func (t Type) Level() slog.Level {
	switch t {
	case TypeDebug:
		return slog.LevelDebug
	case TypeInfo, TypeSys, TypePerf, TypeAPIRequest:
		return slog.LevelInfo
	case TypeWarning:
		return slog.LevelWarn
	case TypeError, TypeException:
		return slog.LevelError
	case TypeFatal:
		return LevelFatal
	default:
		panic(fmt.Sprintf("unhandled log type %d", int(t)))
	}
}

// Env selects the destination family from the configuration.
type Env string

const (
	EnvLocal Env = "local"
	EnvGCP   Env = "gcp"
)

func ParseEnv(s string) (Env, error) {
	switch Env(strings.ToLower(strings.TrimSpace(s))) {
	case "", EnvLocal:
		return EnvLocal, nil
	case EnvGCP:
		return EnvGCP, nil
	default:
		return "", fmt.Errorf("unknown log environment %q", s)
	}
}

// ParseLevel understands the slog level names plus "warning" and "fatal".
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	case "fatal":
		return LevelFatal, nil
	}

	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	if err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}

	return level, nil
}
