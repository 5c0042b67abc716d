package digutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
)

type greeting struct {
	text string
}

type missing struct{}

func TestProvideValueAndGet(t *testing.T) {
	c := dig.New()
	require.NoError(t, ProvideValue(c, &greeting{text: "hello"}))
	require.NoError(t, c.Provide(func(g *greeting) string {
		return g.text + " world"
	}))

	g, err := Get[*greeting](c)
	require.NoError(t, err)
	assert.Equal(t, "hello", g.text)

	s, err := Get[string](c)
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)

	_, err = Get[*missing](c)
	require.Error(t, err)
}

func TestGetPassesProviderErrors(t *testing.T) {
	sentinel := errors.New("no config")

	c := dig.New()
	require.NoError(t, c.Provide(func() (*greeting, error) {
		return nil, sentinel
	}))

	_, err := Get[*greeting](c)
	require.ErrorIs(t, err, sentinel)
}

func TestGetOptional(t *testing.T) {
	c := dig.New()

	v, err := GetOptional[greeting](c)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, ProvideValue(c, &greeting{text: "hi"}))
	v, err = GetOptional[greeting](c)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "hi", v.text)
}
