package environment

import "errors"

// ConfigurationError reports a pipeline that cannot be constructed with
// the given capabilities or options. It is fatal at construction.
type ConfigurationError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *ConfigurationError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError returns whether or not err reports a
// configuration problem anywhere in its chain
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}
