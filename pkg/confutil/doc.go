// Package confutil loads the YAML configuration of an application and
// exposes it as an immutable snapshot addressed by dot-separated key paths.
//
// The configuration is read from a file named config.yaml that lives next to
// the application package. When the file does not exist, the content of the
// CONFIG_YAML environment variable is used instead, which is how deployed
// services receive their configuration from a mounted secret.
//
//	cfg, err := confutil.Load(os.DirFS("services/payments"))
//	if err != nil {
//	    return err
//	}
//
//	name := cfg.GetString("service.name", "unknown")
//	port := cfg.GetInt("server.port", 8080)
//
// A missing configuration is a fatal initialization error. Load never
// synthesizes a partial or default configuration; callers decide what to do
// with ErrNotFound and ErrParse.
//
// The returned *Config is meant to be constructed once and passed to all
// dependents, instead of being stored in a package level variable.
package confutil
