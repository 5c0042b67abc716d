package confutil

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleYAML = `
service:
  name: payments
  replicas: "3"
logging:
  env: local
  level: debug
server:
  timeout: 5s
  hosts: [a, b]
  tls: true
`

func noEnv(string) (string, bool) { return "", false }

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadFromFile(t *testing.T) {
	fsys := fstest.MapFS{
		FileName: {Data: []byte(exampleYAML)},
	}

	cfg, err := Load(fsys, WithLookupEnv(env(map[string]string{
		EnvVar: "service: {name: from-env}",
	})))
	require.NoError(t, err)

	assert.Equal(t, "payments", cfg.GetString("service.name", ""))
	assert.Equal(t, SourceFile, cfg.Source().Kind)
}

func TestLoadFallsBackToEnv(t *testing.T) {
	cfg, err := Load(fstest.MapFS{}, WithLookupEnv(env(map[string]string{
		EnvVar: "service: {name: from-env}",
	})))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetString("service.name", ""))
	assert.Equal(t, SourceEnv, cfg.Source().Kind)
}

func TestLoadNilFS(t *testing.T) {
	cfg, err := Load(nil, WithLookupEnv(env(map[string]string{
		EnvVar: "a: 1",
	})))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.GetInt("a", 0))
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(fstest.MapFS{}, WithLookupEnv(noEnv))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config.yaml")
	assert.Contains(t, err.Error(), "CONFIG_YAML")
}

func TestLoadParseErrors(t *testing.T) {
	cases := map[string]string{
		"invalid-yaml": "a: [1, 2",
		"scalar":       "just a string",
		"list":         "- a\n- b\n",
		"empty":        "",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(fstest.MapFS{
				FileName: {Data: []byte(content)},
			}, WithLookupEnv(noEnv))
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestLookup(t *testing.T) {
	cfg, err := Parse([]byte(exampleYAML))
	require.NoError(t, err)

	v, ok := cfg.Lookup("logging.level")
	require.True(t, ok)
	assert.Equal(t, "debug", v)

	_, ok = cfg.Lookup("logging.level.deeper")
	assert.False(t, ok)

	_, ok = cfg.Lookup("nope")
	assert.False(t, ok)

	assert.Equal(t, "fallback", cfg.Get("service.owner", "fallback"))
	assert.Equal(t, "payments", cfg.Get("service.name", nil))
}

func TestTypedGetters(t *testing.T) {
	cfg, err := Parse([]byte(exampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.GetInt("service.replicas", 0))
	assert.Equal(t, 5*time.Second, cfg.GetDuration("server.timeout", 0))
	assert.True(t, cfg.GetBool("server.tls", false))
	assert.Equal(t, []string{"a", "b"}, cfg.GetStringSlice("server.hosts", nil))

	// Unconvertible values resolve to the default.
	assert.Equal(t, 7, cfg.GetInt("service.name", 7))
}

func TestSubAndDecode(t *testing.T) {
	cfg, err := Parse([]byte(exampleYAML))
	require.NoError(t, err)

	sub, ok := cfg.Sub("server")
	require.True(t, ok)
	assert.True(t, sub.GetBool("tls", false))

	_, ok = cfg.Sub("service.name")
	assert.False(t, ok)

	var server struct {
		Timeout time.Duration `mapstructure:"timeout"`
		Hosts   []string      `mapstructure:"hosts"`
		TLS     bool          `mapstructure:"tls"`
	}
	require.NoError(t, cfg.Decode("server", &server))
	assert.Equal(t, 5*time.Second, server.Timeout)
	assert.Equal(t, []string{"a", "b"}, server.Hosts)
	assert.True(t, server.TLS)

	var untouched struct {
		Foo string `mapstructure:"foo"`
	}
	untouched.Foo = "keep"
	require.NoError(t, cfg.Decode("missing", &untouched))
	assert.Equal(t, "keep", untouched.Foo)
}

func TestSnapshotIsImmutable(t *testing.T) {
	cfg, err := Parse([]byte(exampleYAML))
	require.NoError(t, err)

	logging, ok := cfg.Get("logging", nil).(map[string]any)
	require.True(t, ok)
	logging["env"] = "gcp"

	hosts, ok := cfg.Get("server.hosts", nil).([]any)
	require.True(t, ok)
	hosts[0] = "z"

	root, ok := cfg.Lookup("")
	require.True(t, ok)
	root.(map[string]any)["service"] = "gone"

	sub, ok := cfg.Sub("server")
	require.True(t, ok)
	server, _ := sub.Lookup("")
	server.(map[string]any)["tls"] = false

	assert.Equal(t, "local", cfg.GetString("logging.env", ""))
	assert.Equal(t, []string{"a", "b"}, cfg.GetStringSlice("server.hosts", nil))
	assert.Equal(t, "payments", cfg.GetString("service.name", ""))
	assert.True(t, cfg.GetBool("server.tls", false))
	assert.True(t, sub.GetBool("tls", false))
}
