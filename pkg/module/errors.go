package module

import "fmt"

// ConfigError reports a defect in bundle authoring: duplicate module IDs, a
// dependency on a module that is not in the run, or a dependency cycle. It is
// not caused by report data and is not recoverable at runtime.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "module configuration: " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// BundleLoadError reports that an applicable bundle failed to load.
type BundleLoadError struct {
	Group Group
	Key   string
	Err   error
}

func (e *BundleLoadError) Error() string {
	return fmt.Sprintf("load %s bundle %q: %v", e.Group, e.Key, e.Err)
}

func (e *BundleLoadError) Unwrap() error { return e.Err }
