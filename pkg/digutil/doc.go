// Package digutil provides helpers for working with Uber's dig dependency injection library.
//
// # Dependency Injection with digutil
//
// Values that already exist get registered with ProvideValue, constructors
// with the regular dig Provide:
//
//	c := dig.New()
//	err := errors.Join(
//	    digutil.ProvideValue(c, cfg),
//	    digutil.ProvideValue(c, runner),
//	    c.Provide(newGit),
//	)
//
// Get resolves a single value, which keeps call sites short when a command
// only needs one dependency:
//
//	git, err := digutil.Get[*gitutil.Git](c)
//
// ## Optional Dependencies
//
// Optional wraps a dependency that does not need to be provided. Its Value
// is nil in that case:
//
//	func NewEditor(runner *executil.Runner, log digutil.Optional[logutil.Logger]) *Editor {
//	    ...
//	}
package digutil
