package digutil

import "go.uber.org/dig"

type Optional[T any] struct {
	dig.In
	Value *T `optional:"true"`
}

func ProvideValue[T any](c *dig.Container, v T) error {
	return c.Provide(func() T {
		return v
	})
}

// Get resolves a single value from the container. Errors returned by
// providers are passed through.
func Get[T any](c *dig.Container) (T, error) {
	var result T
	err := c.Invoke(func(v T) {
		result = v
	})
	return result, err
}

// GetOptional resolves a value that might not be provided. It returns nil
// instead of an error in that case.
func GetOptional[T any](c *dig.Container) (*T, error) {
	var result *T
	err := c.Invoke(func(o Optional[T]) {
		result = o.Value
	})
	return result, err
}
