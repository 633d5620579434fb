package damon

import "errors"

// ErrInvalidConfig wraps every validation and decoding failure of a configuration.
var ErrInvalidConfig = errors.New("damon: invalid config")
