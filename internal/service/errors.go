package service

import "errors"

// ErrUnknownStrategy is returned for keys missing from the strategy file
var ErrUnknownStrategy = errors.New("unknown strategy")
