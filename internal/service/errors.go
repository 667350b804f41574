package service

import "errors"

// ErrValidation marks request-shaped failures the API maps to 400. Wrap it
// with the field-specific message.
var ErrValidation = errors.New("validation failed")
