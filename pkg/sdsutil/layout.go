// Package sdsutil knows the layout of an sds repository and implements the
// config commands on top of it.
package sdsutil

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvSDSRoot = "SDS_ROOT_IN_HOST"
	EnvPath    = "PATH"
)

// Layout resolves the well-known paths below the repository root.
type Layout struct {
	RepoRoot string
}

func (l Layout) SDSRoot() string {
	return filepath.Join(l.RepoRoot, "devops", "sds")
}

func (l Layout) ConfigFile() string {
	return filepath.Join(l.SDSRoot(), "etc", "sds.conf")
}

func (l Layout) ValidationScript() string {
	return filepath.Join(l.SDSRoot(), "bootstrap", "sds-load-config.sh")
}

// UtilsDir contains helper executables the validation script expects in
// PATH.
func (l Layout) UtilsDir() string {
	return filepath.Join(l.SDSRoot(), "opt", "sds")
}

// ValidationEnv returns base with SDS_ROOT_IN_HOST set to the sds root and
// the utilities directory appended to PATH.
func (l Layout) ValidationEnv(base []string) []string {
	env := make([]string, 0, len(base)+2)
	path := ""

	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case EnvPath:
			path = value
		case EnvSDSRoot:
		default:
			env = append(env, kv)
		}
	}

	// An empty PATH entry would put the working directory on the search path.
	if path == "" {
		path = l.UtilsDir()
	} else {
		path += string(os.PathListSeparator) + l.UtilsDir()
	}

	return append(env,
		EnvSDSRoot+"="+l.SDSRoot(),
		EnvPath+"="+path,
	)
}
