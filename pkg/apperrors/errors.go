package apperrors

import "errors"

var (
	ErrMissingDependency  = errors.New("missing required dependency")
	ErrUninitialized      = errors.New("data source provider not initialized")
	ErrAlreadyInitialized = errors.New("data source provider already initialized")
	ErrProviderDestroyed  = errors.New("data source provider destroyed")
	ErrPoolClosed         = errors.New("pool closed")
	ErrUnsupportedDriver  = errors.New("unsupported driver")
)
